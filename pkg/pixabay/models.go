package pixabay

import "strings"

// SearchResponse is the JSON body of a search request
type SearchResponse struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []Hit `json:"hits"`
}

// Hit is one image record returned by the search API
type Hit struct {
	ID              int    `json:"id"`
	PageURL         string `json:"pageURL"`
	Type            string `json:"type"`
	Tags            string `json:"tags"`
	PreviewURL      string `json:"previewURL"`
	PreviewWidth    int    `json:"previewWidth"`
	PreviewHeight   int    `json:"previewHeight"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	LargeImageURL   string `json:"largeImageURL"`
	ImageWidth      int    `json:"imageWidth"`
	ImageHeight     int    `json:"imageHeight"`
	ImageSize       int64  `json:"imageSize"`
	Views           int    `json:"views"`
	Downloads       int    `json:"downloads"`
	Likes           int    `json:"likes"`
	Comments        int    `json:"comments"`
	UserID          int    `json:"user_id"`
	User            string `json:"user"`
	UserImageURL    string `json:"userImageURL"`
}

// TagList splits the comma separated tag string
func (h Hit) TagList() []string {
	var tags []string
	for _, t := range strings.Split(h.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FullSizeURL is the URL used for the lightbox and for saving. Older
// records without a large image fall back to the web format.
func (h Hit) FullSizeURL() string {
	if h.LargeImageURL != "" {
		return h.LargeImageURL
	}
	return h.WebformatURL
}

// Quota is the rate limit state reported in response headers
type Quota struct {
	Limit     int
	Remaining int
	// ResetSeconds is the time until the window fully resets
	ResetSeconds int
}
