package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/xid"

	"pixgallery/pkg/logger"
	"pixgallery/pkg/pixabay"
)

// ScrollRowsPerPage is how many card rows the view advances after a
// follow-up page renders
const ScrollRowsPerPage = 2

// Searcher fetches one page of results
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*pixabay.SearchResponse, error)
}

// State is where the controller sits in its fetch cycle
type State int

const (
	StateIdle State = iota
	StateLoading
	StateHasMore
	StateExhausted
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHasMore:
		return "idle-with-more"
	case StateExhausted:
		return "idle-exhausted"
	case StateError:
		return "idle-error"
	default:
		return "idle"
	}
}

// Options configures a Controller
type Options struct {
	PerPage        int
	MaxQueryLength int
	// InfiniteScroll lets ScrollCheck trigger LoadMore
	InfiniteScroll bool
	Notifier       Notifier
	Lightbox       *Lightbox
	Logger         logger.Logger
}

// Result describes one rendered page
type Result struct {
	SearchID  string
	Query     string
	Page      int
	Items     []pixabay.Hit
	TotalHits int
	Exhausted bool
	// ScrollRows is how far the view should advance, zero on page 1
	ScrollRows int
}

// Snapshot is a copy of the controller state for rendering
type Snapshot struct {
	SearchID     string
	Query        string
	Page         int
	PerPage      int
	TotalHits    int
	State        State
	Items        []pixabay.Hit
	CanSubmit    bool
	ShowLoadMore bool
	EndReached   bool
	Watching     bool
}

// Controller owns the query, the page counter and the rendered items
type Controller struct {
	searcher Searcher
	notifier Notifier
	lightbox *Lightbox
	logger   logger.Logger

	perPage        int
	maxQueryLength int
	infiniteScroll bool

	mu           sync.Mutex
	searchID     string
	query        string
	page         int
	totalHits    int
	items        []pixabay.Hit
	state        State
	canSubmit    bool
	watching     bool
	endReached   bool
	generation   uint64
	inputVersion uint64
	cancel       context.CancelFunc
}

// NewController creates a controller in the idle state
func NewController(searcher Searcher, opts Options) *Controller {
	if opts.PerPage <= 0 {
		opts.PerPage = pixabay.DefaultPerPage
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = pixabay.MaxQueryLength
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Lightbox == nil {
		opts.Lightbox = NewLightbox()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &Controller{
		searcher:       searcher,
		notifier:       opts.Notifier,
		lightbox:       opts.Lightbox,
		logger:         opts.Logger.WithField("component", "gallery"),
		perPage:        opts.PerPage,
		maxQueryLength: opts.MaxQueryLength,
		infiniteScroll: opts.InfiniteScroll,
		page:           1,
		canSubmit:      true,
	}
}

// Lightbox returns the overlay bound to the rendered items
func (c *Controller) Lightbox() *Lightbox {
	return c.lightbox
}

// Submit validates query and fetches its first page. A rejected query
// clears the gallery without touching the network. Nothing happens while
// submission is disabled.
func (c *Controller) Submit(ctx context.Context, query string) (*Result, error) {
	return c.submit(ctx, query, nil)
}

// SubmitVersion is Submit for a query read at input version v. It returns
// ErrSuperseded, changing nothing, when InputChanged ran after v was taken.
func (c *Controller) SubmitVersion(ctx context.Context, v uint64, query string) (*Result, error) {
	return c.submit(ctx, query, &v)
}

// InputVersion identifies the input text. Every InputChanged advances it.
func (c *Controller) InputVersion() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputVersion
}

func (c *Controller) submit(ctx context.Context, query string, version *uint64) (*Result, error) {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if version != nil && *version != c.inputVersion {
		c.mu.Unlock()
		c.logger.Debug("dropping submit for edited input")
		return nil, ErrSuperseded
	}
	if !c.canSubmit {
		c.mu.Unlock()
		return nil, ErrSubmitDisabled
	}

	if err := c.validate(query); err != nil {
		c.generation++
		c.stopFetchLocked()
		c.clearLocked()
		c.state = StateIdle
		c.mu.Unlock()

		c.logger.WithError(err).Debug("query rejected")
		c.notify(LevelFailure, MsgInvalidQuery)
		return nil, err
	}

	c.stopFetchLocked()
	c.clearLocked()
	c.searchID = xid.New().String()
	c.query = query
	c.page = 1
	c.canSubmit = false
	gen, fetchCtx := c.beginLocked(ctx)
	searchID := c.searchID
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"search_id": searchID,
		"query":     query,
	}).Info("search submitted")

	return c.load(fetchCtx, gen, searchID, query, 1)
}

// LoadMore fetches the next page of the current query. It returns nil, nil
// when there is nothing to do.
func (c *Controller) LoadMore(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.query == "" || c.state != StateHasMore {
		c.mu.Unlock()
		return nil, nil
	}
	query, page, searchID := c.query, c.page, c.searchID
	gen, fetchCtx := c.beginLocked(ctx)
	c.mu.Unlock()

	return c.load(fetchCtx, gen, searchID, query, page)
}

// FetchPage requests one page and returns its items and the total hit
// count. Failures come back as *FetchError.
func (c *Controller) FetchPage(ctx context.Context, query string, page int) ([]pixabay.Hit, int, error) {
	resp, err := c.searcher.Search(ctx, query, page)
	if err != nil {
		return nil, 0, &FetchError{Query: query, Page: page, Err: err}
	}
	if resp == nil {
		return nil, 0, &FetchError{Query: query, Page: page, Err: errors.New("empty response")}
	}
	return resp.Hits, resp.TotalHits, nil
}

// Render appends items for the page that was just fetched and updates the
// load-more affordance, the scroll watcher and the lightbox.
func (c *Controller) Render(items []pixabay.Hit, totalHits int) (exhausted bool) {
	c.mu.Lock()
	exhausted = c.renderLocked(items, totalHits)
	c.mu.Unlock()

	if exhausted && totalHits > 0 {
		c.notify(LevelInfo, MsgEndOfResults)
	}
	return exhausted
}

// InputChanged clears the gallery and re-enables submission. A fetch in
// flight is cancelled and its result dropped.
func (c *Controller) InputChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.inputVersion++
	c.stopFetchLocked()
	c.clearLocked()
	c.query = ""
	c.searchID = ""
	c.page = 1
	c.state = StateIdle
	c.canSubmit = true
}

// ScrollCheck reports whether LoadMore should run given that the last
// rendered card is or is not visible
func (c *Controller) ScrollCheck(lastCardVisible bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infiniteScroll && c.watching && lastCardVisible && c.state == StateHasMore
}

// Snapshot copies the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SearchID:     c.searchID,
		Query:        c.query,
		Page:         c.page,
		PerPage:      c.perPage,
		TotalHits:    c.totalHits,
		State:        c.state,
		Items:        append([]pixabay.Hit(nil), c.items...),
		CanSubmit:    c.canSubmit,
		ShowLoadMore: c.state == StateHasMore,
		EndReached:   c.endReached,
		Watching:     c.watching,
	}
}

// Close cancels any fetch in flight
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.stopFetchLocked()
	c.mu.Unlock()
}

func (c *Controller) validate(query string) error {
	if query == "" {
		return &ValidationError{Query: query, Reason: "query is empty"}
	}
	if n := utf8.RuneCountInString(query); n > c.maxQueryLength {
		return &ValidationError{Query: query, Reason: fmt.Sprintf("%d characters exceeds the limit of %d", n, c.maxQueryLength)}
	}
	return nil
}

func (c *Controller) load(ctx context.Context, gen uint64, searchID, query string, page int) (*Result, error) {
	log := c.logger.WithFields(map[string]interface{}{
		"search_id": searchID,
		"page":      page,
	})

	items, totalHits, err := c.FetchPage(ctx, query, page)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug("discarding superseded fetch")
		return nil, ErrSuperseded
	}
	c.stopFetchLocked()

	if err != nil {
		c.clearLocked()
		c.state = StateError
		c.mu.Unlock()

		log.WithError(err).Warn("search failed")
		c.notify(LevelFailure, MsgSearchError)
		return nil, err
	}

	if totalHits == 0 {
		c.clearLocked()
		c.totalHits = 0
		c.state = StateExhausted
		c.endReached = true
		c.mu.Unlock()

		log.Info("search returned no results")
		c.notify(LevelFailure, MsgNoResults)
		return &Result{SearchID: searchID, Query: query, Page: page, Exhausted: true}, nil
	}

	exhausted := c.renderLocked(items, totalHits)
	c.page = page + 1
	c.mu.Unlock()

	log.InfoWithFields("page rendered", map[string]interface{}{
		"items":      len(items),
		"total_hits": totalHits,
		"exhausted":  exhausted,
	})

	res := &Result{
		SearchID:  searchID,
		Query:     query,
		Page:      page,
		Items:     items,
		TotalHits: totalHits,
		Exhausted: exhausted,
	}
	if page == 1 {
		c.notify(LevelSuccess, FoundMessage(totalHits))
	} else {
		res.ScrollRows = ScrollRowsPerPage
	}
	if exhausted {
		c.notify(LevelInfo, MsgEndOfResults)
	}
	return res, nil
}

// renderLocked appends items fetched for c.page. c.mu must be held.
func (c *Controller) renderLocked(items []pixabay.Hit, totalHits int) bool {
	c.items = append(c.items, items...)
	c.totalHits = totalHits

	exhausted := c.page*c.perPage >= totalHits
	if exhausted {
		c.state = StateExhausted
		c.watching = false
		c.endReached = true
	} else {
		c.state = StateHasMore
		c.watching = true
		c.endReached = false
	}
	c.lightbox.Refresh(c.items)
	return exhausted
}

func (c *Controller) beginLocked(ctx context.Context) (uint64, context.Context) {
	c.generation++
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateLoading
	return c.generation, fetchCtx
}

func (c *Controller) stopFetchLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) clearLocked() {
	c.items = nil
	c.totalHits = 0
	c.watching = false
	c.endReached = false
	c.lightbox.Refresh(nil)
	c.lightbox.Close()
}

// notify must be called without c.mu held
func (c *Controller) notify(level Level, msg string) {
	c.notifier.Notify(Notification{Level: level, Message: msg})
}
