// Package retry re-runs operations that failed for transient reasons.
//
// pixgallery only retries full-size image downloads; a gallery search that
// fails is reported to the user straight away. Backoff is exponential with
// jitter, and rate-limit errors back off longer than network errors:
//
//	data, err := retry.DoWithResult(ctx, func() ([]byte, error) {
//		return client.DownloadImage(ctx, hit.LargeImageURL)
//	}, retry.DefaultConfig())
package retry
