// Package pixabay is a client for the Pixabay image search API.
//
// A search request carries the query, a fixed set of filter parameters
// (orientation, image type, safe search), the page size, the API key and
// the page number, and returns the total number of accessible hits plus
// one page of Hit records:
//
//	client := pixabay.NewClient(cfg.Pixabay, limiter, store, log)
//	resp, err := client.Search(ctx, "yellow flowers", 1)
//	if err != nil {
//	    switch errors.TypeOf(err) {
//	    case errors.ErrorTypeBadRequest: // usually a bad API key
//	    case errors.ErrorTypeRateLimit:
//	    }
//	}
//
// Responses are cached (see package cache) and requests are paced by a
// ratelimit.Limiter. Search never retries; image downloads are retried
// by the downloader.
package pixabay
