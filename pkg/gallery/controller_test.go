package gallery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/logger"
	"pixgallery/pkg/pixabay"
)

type searchCall struct {
	query string
	page  int
}

// fakeSearcher serves total generated hits in pages of 40
type fakeSearcher struct {
	mu      sync.Mutex
	total   int
	err     error
	calls   []searchCall
	block   chan struct{}
	started chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page int) (*pixabay.SearchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{query, page})
	block, started, err, total := f.block, f.started, f.err, f.total
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	resp := &pixabay.SearchResponse{Total: total, TotalHits: total}
	for i := (page - 1) * 40; i < page*40 && i < total; i++ {
		resp.Hits = append(resp.Hits, pixabay.Hit{ID: i + 1, Tags: query})
	}
	return resp, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSearcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Message
	}
	return out
}

func (r *recordingNotifier) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes[len(r.notes)-1]
}

func newTestController(s Searcher, infinite bool) (*Controller, *recordingNotifier) {
	n := &recordingNotifier{}
	c := NewController(s, Options{
		PerPage:        40,
		InfiniteScroll: infinite,
		Notifier:       n,
		Logger:         logger.NewTestLogger(),
	})
	return c, n
}

func TestSubmitRejectsInvalidQueries(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"too long", strings.Repeat("a", 101)},
		{"too long multibyte", strings.Repeat("ü", 101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{total: 95}
			c, n := newTestController(s, false)

			res, err := c.Submit(context.Background(), tt.query)
			assert.Nil(t, res)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Zero(t, s.callCount())
			assert.Equal(t, Notification{Level: LevelFailure, Message: MsgInvalidQuery}, n.last())
			assert.Empty(t, c.Snapshot().Items)
		})
	}
}

func TestSubmitAcceptsMaxLengthQuery(t *testing.T) {
	s := &fakeSearcher{total: 1}
	c, _ := newTestController(s, false)

	_, err := c.Submit(context.Background(), "  "+strings.Repeat("a", 100)+"  ")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 100), s.calls[0].query)
}

func TestSubmitWhileDisabledIgnoresInvalidQuery(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, n := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	before := n.messages()

	_, err = c.Submit(context.Background(), "")
	assert.ErrorIs(t, err, ErrSubmitDisabled)

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 40)
	assert.True(t, snap.ShowLoadMore)
	assert.Len(t, c.Lightbox().Items(), 40)
	assert.Equal(t, before, n.messages())
	assert.Equal(t, 1, s.callCount())
}

func TestSubmitVersionDroppedAfterEdit(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, n := newTestController(s, false)

	v := c.InputVersion()
	c.InputChanged()
	require.NotEqual(t, v, c.InputVersion())

	res, err := c.SubmitVersion(context.Background(), v, "cats")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Zero(t, s.callCount())
	assert.Empty(t, n.messages())

	snap := c.Snapshot()
	assert.True(t, snap.CanSubmit)
	assert.Empty(t, snap.Query)
	assert.Empty(t, snap.Items)

	res, err = c.SubmitVersion(context.Background(), c.InputVersion(), "catsx")
	require.NoError(t, err)
	assert.Equal(t, "catsx", res.Query)
	assert.Equal(t, searchCall{"catsx", 1}, s.calls[0])
}

func TestSubmitRendersFirstPage(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, n := newTestController(s, true)

	res, err := c.Submit(context.Background(), "  yellow flowers ")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, 40)
	assert.Equal(t, 95, res.TotalHits)
	assert.False(t, res.Exhausted)
	assert.Zero(t, res.ScrollRows)
	assert.NotEmpty(t, res.SearchID)

	assert.Equal(t, []searchCall{{"yellow flowers", 1}}, s.calls)
	assert.Equal(t, []string{"Hooray! We found 95 images."}, n.messages())
	assert.Equal(t, LevelSuccess, n.last().Level)

	snap := c.Snapshot()
	assert.Equal(t, "yellow flowers", snap.Query)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, StateHasMore, snap.State)
	assert.True(t, snap.ShowLoadMore)
	assert.True(t, snap.Watching)
	assert.False(t, snap.EndReached)
	assert.False(t, snap.CanSubmit)
	assert.Equal(t, res.SearchID, snap.SearchID)
	assert.Len(t, c.Lightbox().Items(), 40)
}

func TestLoadMoreUntilExhausted(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, n := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)

	res, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, ScrollRowsPerPage, res.ScrollRows)
	assert.False(t, res.Exhausted)
	assert.Len(t, c.Snapshot().Items, 80)

	res, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)
	assert.Len(t, res.Items, 15)
	assert.True(t, res.Exhausted)

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 95)
	assert.Equal(t, 4, snap.Page)
	assert.Equal(t, StateExhausted, snap.State)
	assert.False(t, snap.ShowLoadMore)
	assert.False(t, snap.Watching)
	assert.True(t, snap.EndReached)
	assert.Equal(t, MsgEndOfResults, n.last().Message)
	assert.Len(t, c.Lightbox().Items(), 95)

	res, err = c.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 3, s.callCount())

	assert.Equal(t, []searchCall{{"cat", 1}, {"cat", 2}, {"cat", 3}}, s.calls)
}

func TestExhaustedOnExactMultiple(t *testing.T) {
	s := &fakeSearcher{total: 80}
	c, _ := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	res, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Equal(t, StateExhausted, c.Snapshot().State)
}

func TestSinglePageShowsCountThenEnd(t *testing.T) {
	s := &fakeSearcher{total: 12}
	c, n := newTestController(s, false)

	res, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Equal(t, []string{"Hooray! We found 12 images.", MsgEndOfResults}, n.messages())
}

func TestNoResults(t *testing.T) {
	s := &fakeSearcher{total: 0}
	c, n := newTestController(s, true)

	res, err := c.Submit(context.Background(), "qwertyuiop")
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Empty(t, res.Items)
	assert.Equal(t, []string{MsgNoResults}, n.messages())

	snap := c.Snapshot()
	assert.Equal(t, StateExhausted, snap.State)
	assert.False(t, snap.ShowLoadMore)
	assert.False(t, c.ScrollCheck(true))
}

func TestFetchErrorClearsGallery(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, n := newTestController(s, true)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	s.setErr(boom)

	res, err := c.LoadMore(context.Background())
	assert.Nil(t, res)

	var fErr *FetchError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, 2, fErr.Page)
	assert.Equal(t, "cat", fErr.Query)
	assert.ErrorIs(t, err, boom)

	snap := c.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.ShowLoadMore)
	assert.False(t, snap.Watching)
	assert.Equal(t, Notification{Level: LevelFailure, Message: MsgSearchError}, n.last())
	assert.Empty(t, c.Lightbox().Items())

	res, err = c.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 2, s.callCount())
}

func TestFetchPageWrapsErrors(t *testing.T) {
	s := &fakeSearcher{err: errors.New("bad json")}
	c, n := newTestController(s, false)

	items, total, err := c.FetchPage(context.Background(), "cat", 3)
	assert.Nil(t, items)
	assert.Zero(t, total)

	var fErr *FetchError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, 3, fErr.Page)
	assert.Empty(t, n.messages())
}

func TestSubmitDisabledUntilInputChanged(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, _ := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), "cat")
	assert.ErrorIs(t, err, ErrSubmitDisabled)
	assert.Equal(t, 1, s.callCount())

	c.InputChanged()
	snap := c.Snapshot()
	assert.True(t, snap.CanSubmit)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Query)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Watching)

	_, err = c.Submit(context.Background(), "dog")
	require.NoError(t, err)
	assert.Equal(t, searchCall{"dog", 1}, s.calls[1])
}

func TestInputChangedDiscardsInFlightFetch(t *testing.T) {
	s := &fakeSearcher{
		total:   95,
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c, n := newTestController(s, false)

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Submit(context.Background(), "cat")
		done <- outcome{res, err}
	}()

	<-s.started
	assert.Equal(t, StateLoading, c.Snapshot().State)
	c.InputChanged()

	select {
	case out := <-done:
		assert.Nil(t, out.res)
		assert.ErrorIs(t, out.err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch was not cancelled")
	}

	snap := c.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, n.messages())
}

func TestLoadMoreIgnoredWhileLoading(t *testing.T) {
	s := &fakeSearcher{total: 200}
	c, _ := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)

	s.mu.Lock()
	s.block = make(chan struct{})
	s.started = make(chan struct{}, 1)
	s.mu.Unlock()

	done := make(chan *Result, 1)
	go func() {
		res, _ := c.LoadMore(context.Background())
		done <- res
	}()
	<-s.started

	res, err := c.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, c.ScrollCheck(true))

	close(s.block)
	first := <-done
	require.NotNil(t, first)
	assert.Equal(t, 2, first.Page)
	assert.Equal(t, 2, s.callCount())
}

func TestScrollCheck(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, _ := newTestController(s, true)

	assert.False(t, c.ScrollCheck(true), "no watcher before the first render")

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	assert.True(t, c.ScrollCheck(true))
	assert.False(t, c.ScrollCheck(false))

	_, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	_, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, c.ScrollCheck(true), "watcher detached once exhausted")
}

func TestScrollCheckDetachedOnClear(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, _ := newTestController(s, true)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	c.InputChanged()
	assert.False(t, c.ScrollCheck(true))
}

func TestScrollCheckRequiresInfiniteScroll(t *testing.T) {
	s := &fakeSearcher{total: 95}
	c, _ := newTestController(s, false)

	_, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)
	assert.False(t, c.ScrollCheck(true))
	assert.True(t, c.Snapshot().ShowLoadMore)
}

func TestRender(t *testing.T) {
	c, n := newTestController(&fakeSearcher{}, false)

	exhausted := c.Render(make([]pixabay.Hit, 40), 100)
	assert.False(t, exhausted)
	assert.True(t, c.Snapshot().ShowLoadMore)
	assert.Equal(t, 1, c.Lightbox().Refreshes())

	exhausted = c.Render(make([]pixabay.Hit, 30), 30)
	assert.True(t, exhausted)
	assert.Equal(t, MsgEndOfResults, n.last().Message)
	assert.Len(t, c.Lightbox().Items(), 70)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "idle-with-more", StateHasMore.String())
	assert.Equal(t, "idle-exhausted", StateExhausted.String())
	assert.Equal(t, "idle-error", StateError.String())
}

func TestSearchIDLogged(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewController(&fakeSearcher{total: 3}, Options{Logger: log})

	res, err := c.Submit(context.Background(), "cat")
	require.NoError(t, err)

	var found bool
	for _, m := range log.GetMessages() {
		if m.Fields["search_id"] == res.SearchID {
			found = true
		}
	}
	assert.True(t, found)
}
