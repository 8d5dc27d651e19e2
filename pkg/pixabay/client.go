package pixabay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pixgallery/pkg/cache"
	"pixgallery/pkg/config"
	errs "pixgallery/pkg/errors"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/ratelimit"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 512

// ResponseCache is the subset of cache.Store the client needs
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte) error
}

// Client talks to the Pixabay API
type Client struct {
	httpClient *http.Client
	params     SearchParams
	userAgent  string
	limiter    ratelimit.Limiter
	cache      ResponseCache
	logger     logger.Logger

	mu    sync.Mutex
	quota Quota
}

// NewClient creates a client from the pixabay config section. limiter and
// store may be nil to disable pacing or caching.
func NewClient(cfg config.PixabayConfig, limiter ratelimit.Limiter, store ResponseCache, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		params:     ParamsFromConfig(cfg),
		userAgent:  cfg.UserAgent,
		limiter:    limiter,
		cache:      store,
		logger:     log.WithField("component", "pixabay"),
	}
}

// SetHTTPClient swaps the transport, mainly for tests
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetAPIKey replaces the key used for subsequent requests
func (c *Client) SetAPIKey(key string) {
	c.params.APIKey = key
}

// PerPage reports the page size requests are built with
func (c *Client) PerPage() int {
	return c.params.PerPage
}

// Quota returns the rate limit state from the most recent live response
func (c *Client) Quota() Quota {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quota
}

// Search fetches one page of results for query
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResponse, error) {
	if c.params.APIKey == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no Pixabay API key configured", nil)
	}

	u, err := c.params.BuildSearchURL(query, page)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "invalid base URL", err)
	}
	key := cache.Key(u)

	log := c.logger.WithFields(map[string]interface{}{
		"query": query,
		"page":  page,
	})

	body, cached := c.fromCache(key)
	if !cached {
		body, err = c.get(ctx, u.String(), RedactKey(u), "application/json", true)
		if err != nil {
			log.WithError(err).Warn("search request failed")
			return nil, err
		}
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorWithFields("failed to parse search response", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errs.New(errs.ErrorTypeParsing, http.StatusOK, fmt.Sprintf("failed to parse JSON: %v", err), err)
	}

	if !cached && c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			log.WithError(err).Warn("failed to cache search response")
		}
	}

	log.DebugWithFields("search completed", map[string]interface{}{
		"hits":       len(resp.Hits),
		"total_hits": resp.TotalHits,
		"cached":     cached,
	})
	return &resp, nil
}

// DownloadImage fetches the bytes behind an image URL. Image hosts are not
// subject to the API quota so the limiter is skipped.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	return c.get(ctx, imageURL, imageURL, "image/*", false)
}

func (c *Client) fromCache(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// get performs a GET and returns the body of a 2xx response. logURL is
// what appears in logs and errors.
func (c *Client) get(ctx context.Context, rawURL, logURL, accept string, limited bool) ([]byte, error) {
	if limited && c.limiter != nil && !c.limiter.Allow() {
		logger.LogRateLimit(c.logger, c.limiter.Remaining(), 0)
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.New(errs.ErrorTypeRateLimit, 0, "cancelled while waiting for rate limit", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err), err)
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      logURL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, fmt.Sprintf("network error: %v", err), err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, logURL, resp.StatusCode, time.Since(start))
	c.recordQuota(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errs.FromStatus(resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, fmt.Sprintf("failed to read response body: %v", err), err)
	}
	return body, nil
}

func (c *Client) recordQuota(h http.Header) {
	limit, err1 := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	remaining, err2 := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err1 != nil || err2 != nil {
		return
	}
	reset, _ := strconv.Atoi(h.Get("X-RateLimit-Reset"))

	c.mu.Lock()
	c.quota = Quota{Limit: limit, Remaining: remaining, ResetSeconds: reset}
	c.mu.Unlock()
}
