// Package ratelimit keeps pixgallery inside the image API's request quota.
//
// SlidingWindow tracks the timestamps of recent requests and is used for
// API searches (Pixabay allows 100 requests per rolling 60 seconds).
// TokenBucket refills in whole periods and paces full-size image downloads.
//
// Both implement Limiter. Wait blocks until a slot frees up or the context
// is cancelled; Remaining reports how many requests may go out right now
// and feeds the status bar of the gallery UI.
package ratelimit
