// Package gallery holds the search-and-paginate state machine behind the
// image gallery.
//
// A Controller owns the current query, the next page to fetch and the
// rendered items. Two triggers drive it: Submit starts a new search and
// LoadMore fetches the following page, either from an explicit request or
// from a ScrollCheck once the last card becomes visible. Results are
// reported through a Notifier and mirrored into a Lightbox so the
// full-size view always matches the rendered cards.
//
// Only one fetch is in flight at a time. Submitting again or changing the
// input cancels the running fetch and any late result is discarded.
package gallery
