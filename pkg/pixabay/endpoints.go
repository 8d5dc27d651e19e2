package pixabay

import (
	"net/url"
	"strconv"

	"pixgallery/pkg/config"
)

const (
	// DefaultBaseURL is the search endpoint
	DefaultBaseURL = "https://pixabay.com/api/"

	// DefaultPerPage is the fixed page size of the gallery
	DefaultPerPage = 40

	// MaxQueryLength is the longest query the API accepts
	MaxQueryLength = 100
)

// SearchParams are the fixed request parameters shared by every page
type SearchParams struct {
	BaseURL     string
	APIKey      string
	PerPage     int
	Orientation string
	ImageType   string
	SafeSearch  bool
}

// ParamsFromConfig copies the search parameters out of the app config
func ParamsFromConfig(cfg config.PixabayConfig) SearchParams {
	p := SearchParams{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		PerPage:     cfg.PerPage,
		Orientation: cfg.Orientation,
		ImageType:   cfg.ImageType,
		SafeSearch:  cfg.SafeSearch,
	}
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// BuildSearchURL returns the request URL for one page of results
func (p SearchParams) BuildSearchURL(query string, page int) (*url.URL, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("orientation", p.Orientation)
	params.Set("image_type", p.ImageType)
	params.Set("safesearch", strconv.FormatBool(p.SafeSearch))
	params.Set("per_page", strconv.Itoa(p.PerPage))
	params.Set("key", p.APIKey)
	params.Set("page", strconv.Itoa(page))
	u.RawQuery = params.Encode()

	return u, nil
}

// RedactKey returns u with the API key parameter masked, for logging.
func RedactKey(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		c.RawQuery = q.Encode()
	}
	return c.String()
}
