// Package pixabaytest provides an in-process fake of the Pixabay search API
// for tests.
package pixabaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"pixgallery/pkg/pixabay"
)

// APIKey is the only key the fake server accepts
const APIKey = "test-key"

// Server serves a fixed corpus of hits per query
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	corpus   map[string][]pixabay.Hit
	failNext int
	queries  []url.Values

	searches  int32
	downloads int32
}

// NewServer starts a fake API. Queries not in the corpus return no hits.
func NewServer() *Server {
	s := &Server{corpus: make(map[string][]pixabay.Hit)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.handleSearch)
	mux.HandleFunc("/images/", s.handleImage)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the value for config.PixabayConfig.BaseURL
func (s *Server) BaseURL() string {
	return s.URL + "/api/"
}

// AddHits registers n generated hits for query, with ids starting at firstID
func (s *Server) AddHits(query string, n, firstID int) []pixabay.Hit {
	hits := make([]pixabay.Hit, n)
	for i := range hits {
		id := firstID + i
		hits[i] = pixabay.Hit{
			ID:              id,
			PageURL:         fmt.Sprintf("https://pixabay.com/photos/%d/", id),
			Type:            "photo",
			Tags:            query + ", nature, test",
			PreviewURL:      fmt.Sprintf("%s/images/%d_150.jpg", s.URL, id),
			WebformatURL:    fmt.Sprintf("%s/images/%d_640.jpg", s.URL, id),
			WebformatWidth:  640,
			WebformatHeight: 427,
			LargeImageURL:   fmt.Sprintf("%s/images/%d_1280.jpg", s.URL, id),
			ImageWidth:      4000,
			ImageHeight:     2667,
			Views:           1000 + id,
			Downloads:       500 + id,
			Likes:           id % 97,
			Comments:        id % 13,
			UserID:          7,
			User:            "tester",
		}
	}

	s.mu.Lock()
	s.corpus[query] = append(s.corpus[query], hits...)
	s.mu.Unlock()
	return hits
}

// FailNext makes the next n requests (search or image) answer 500
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// SearchCount is the number of search requests served
func (s *Server) SearchCount() int { return int(atomic.LoadInt32(&s.searches)) }

// DownloadCount is the number of image requests served
func (s *Server) DownloadCount() int { return int(atomic.LoadInt32(&s.downloads)) }

// LastQuery returns the query parameters of the last search request
func (s *Server) LastQuery() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	out := map[string]string{}
	for k, v := range s.queries[len(s.queries)-1] {
		out[k] = v[0]
	}
	return out
}

func (s *Server) shouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return true
	}
	return false
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.searches, 1)
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.Query())
	s.mu.Unlock()

	if s.shouldFail() {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	if q.Get("key") != APIKey {
		http.Error(w, "[ERROR 400] Invalid or missing API key.", http.StatusBadRequest)
		return
	}

	perPage, _ := strconv.Atoi(q.Get("per_page"))
	page, _ := strconv.Atoi(q.Get("page"))
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	s.mu.Lock()
	all := s.corpus[strings.TrimSpace(q.Get("q"))]
	s.mu.Unlock()

	start := (page - 1) * perPage
	if start > len(all) {
		http.Error(w, "[ERROR 400] \"page\" is out of valid range.", http.StatusBadRequest)
		return
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", "100")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(100-s.SearchCount()))
	w.Header().Set("X-RateLimit-Reset", "60")
	_ = json.NewEncoder(w).Encode(pixabay.SearchResponse{
		Total:     len(all),
		TotalHits: len(all),
		Hits:      all[start:end],
	})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.downloads, 1)
	if s.shouldFail() {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	// a JPEG SOI marker followed by the path keeps payloads distinguishable
	_, _ = w.Write(append([]byte{0xFF, 0xD8, 0xFF}, []byte(r.URL.Path)...))
}
