package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pixgallery/internal/downloader"
	"pixgallery/pkg/gallery"
	"pixgallery/pkg/pixabay"
)

type fetchKind int

const (
	fetchSubmit fetchKind = iota
	fetchMore
)

// searchDoneMsg carries the outcome of Submit or LoadMore
type searchDoneMsg struct {
	seq    int
	kind   fetchKind
	query  string
	result *gallery.Result
	err    error
}

// scrollCheckMsg fires once the cursor has rested for the debounce period
type scrollCheckMsg struct {
	seq int
}

// saveDoneMsg is sent when a save or save-all finishes
type saveDoneMsg struct {
	results []downloader.Result
}

type toastExpiredMsg struct {
	id int
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 20
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchDoneMsg:
		return m, m.handleSearchDone(msg)

	case scrollCheckMsg:
		if msg.seq != m.scrollSeq || m.loading {
			return m, nil
		}
		snap := m.ctrl.Snapshot()
		if m.ctrl.ScrollCheck(m.lastCardVisible(len(snap.Items))) {
			return m, m.loadMore()
		}
		return m, nil

	case saveDoneMsg:
		m.saving = false
		return m, m.handleSaveDone(msg.results)

	case toastExpiredMsg:
		m.removeToast(msg.id)
		return m, nil
	}

	return m, nil
}

// handleKeyPress routes keys to the lightbox, the input or the grid
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}
	if m.ctrl.Lightbox().IsOpen() {
		return m, m.handleLightboxKey(msg)
	}
	if m.focus == focusInput {
		return m, m.handleInputKey(msg)
	}
	return m, m.handleGridKey(msg)
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.HistoryUp):
		if q, ok := m.nav.Older(m.input.Value()); ok {
			m.setInput(q)
		}
		return nil

	case key.Matches(msg, m.keys.HistoryDown):
		if q, ok := m.nav.Newer(); ok {
			m.setInput(q)
		}
		return nil

	case key.Matches(msg, m.keys.FocusGrid):
		if len(m.ctrl.Snapshot().Items) > 0 {
			m.focusGrid()
		}
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.inputChanged()
	}
	return cmd
}

func (m *Model) handleGridKey(msg tea.KeyMsg) tea.Cmd {
	snap := m.ctrl.Snapshot()
	n := len(snap.Items)
	cols := m.gridColumns()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil

	case key.Matches(msg, m.keys.FocusInput):
		m.focus = focusInput
		return m.input.Focus()

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-cols, n)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(cols, n)
	case key.Matches(msg, m.keys.Left):
		return m.moveCursor(-1, n)
	case key.Matches(msg, m.keys.Right):
		return m.moveCursor(1, n)

	case key.Matches(msg, m.keys.Open):
		if err := m.ctrl.Lightbox().Open(m.cursor); err != nil {
			m.logger.WithError(err).Debug("lightbox not opened")
		}
		return nil

	case key.Matches(msg, m.keys.LoadMore):
		if snap.ShowLoadMore && !m.loading {
			return m.loadMore()
		}
		return nil

	case key.Matches(msg, m.keys.Save):
		if m.cursor < n {
			return m.saveHits([]pixabay.Hit{snap.Items[m.cursor]}, snap.Query)
		}
		return nil

	case key.Matches(msg, m.keys.SaveAll):
		return m.saveHits(snap.Items, snap.Query)
	}
	return nil
}

func (m *Model) handleLightboxKey(msg tea.KeyMsg) tea.Cmd {
	lb := m.ctrl.Lightbox()

	switch {
	case key.Matches(msg, m.keys.Prev):
		lb.Prev()
	case key.Matches(msg, m.keys.Next):
		lb.Next()
	case key.Matches(msg, m.keys.Save):
		if hit, ok := lb.Current(); ok {
			return m.saveHits([]pixabay.Hit{hit}, m.ctrl.Snapshot().Query)
		}
	case key.Matches(msg, m.keys.Close):
		idx, _ := lb.Position()
		lb.Close()
		m.cursor = idx
		m.ensureCursorVisible()
	}
	return nil
}

func (m *Model) moveCursor(delta, items int) tea.Cmd {
	if items == 0 {
		return nil
	}
	next := m.cursor + delta
	if next < 0 || next >= items {
		return nil
	}
	m.cursor = next
	m.ensureCursorVisible()
	return m.scheduleScrollCheck()
}

// scheduleScrollCheck restarts the debounce timer. Only the newest timer
// is honored.
func (m *Model) scheduleScrollCheck() tea.Cmd {
	if !m.infiniteScroll {
		return nil
	}
	m.scrollSeq++
	seq := m.scrollSeq
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return scrollCheckMsg{seq: seq}
	})
}

func (m *Model) setInput(q string) {
	m.input.SetValue(q)
	m.input.CursorEnd()
	m.inputChanged()
}

// inputChanged mirrors any edit of the query text into the controller
func (m *Model) inputChanged() {
	m.ctrl.InputChanged()
	m.loading = false
	m.resetGrid()
}

func (m *Model) focusGrid() {
	m.focus = focusGrid
	m.input.Blur()
}

func (m *Model) submit() tea.Cmd {
	if !m.ctrl.Snapshot().CanSubmit {
		return nil
	}
	// the command runs later; an edit in between must win over this query
	query, version := m.input.Value(), m.ctrl.InputVersion()
	ctrl, ctx := m.ctrl, m.ctx
	m.fetchSeq++
	seq := m.fetchSeq
	m.loading = true

	return tea.Batch(func() tea.Msg {
		res, err := ctrl.SubmitVersion(ctx, version, query)
		return searchDoneMsg{seq: seq, kind: fetchSubmit, query: query, result: res, err: err}
	}, m.spinner.Tick)
}

func (m *Model) loadMore() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	m.fetchSeq++
	seq := m.fetchSeq
	m.loading = true

	return tea.Batch(func() tea.Msg {
		res, err := ctrl.LoadMore(ctx)
		return searchDoneMsg{seq: seq, kind: fetchMore, result: res, err: err}
	}, m.spinner.Tick)
}

func (m *Model) handleSearchDone(msg searchDoneMsg) tea.Cmd {
	if msg.seq == m.fetchSeq {
		m.loading = false
	}
	if errors.Is(msg.err, gallery.ErrSuperseded) {
		return m.addToasts()
	}

	if msg.kind == fetchSubmit {
		m.recordHistory(msg.query, msg.err)
		m.resetGrid()
	}

	cmds := []tea.Cmd{m.addToasts()}
	if msg.err != nil || msg.result == nil {
		return tea.Batch(cmds...)
	}

	res := msg.result
	items := len(m.ctrl.Snapshot().Items)
	if res.ScrollRows > 0 {
		m.scrollBy(res.ScrollRows, items)
	}
	if msg.kind == fetchSubmit && items > 0 {
		m.focusGrid()
	}
	if !res.Exhausted {
		// the watcher attaches after render; check once in case the last
		// card is already on screen
		cmds = append(cmds, m.scheduleScrollCheck())
	}
	return tea.Batch(cmds...)
}

// recordHistory stores queries that reached the network
func (m *Model) recordHistory(query string, err error) {
	var verr *gallery.ValidationError
	if errors.As(err, &verr) || errors.Is(err, gallery.ErrSubmitDisabled) {
		return
	}
	m.nav.Push(query)
	if m.history == nil {
		return
	}
	if err := m.history.Add(query); err != nil {
		m.logger.WithError(err).Warn("failed to record search history")
	}
}

func (m *Model) saveHits(hits []pixabay.Hit, query string) tea.Cmd {
	if m.save == nil || m.saving || len(hits) == 0 {
		return nil
	}
	m.saving = true
	save, ctx := m.save, m.ctx
	batch := append([]pixabay.Hit(nil), hits...)

	return func() tea.Msg {
		return saveDoneMsg{results: save(ctx, batch, query)}
	}
}

func (m *Model) handleSaveDone(results []downloader.Result) tea.Cmd {
	sum := downloader.Summarize(results)
	if sum.Failed > 0 {
		return m.pushToast(gallery.LevelFailure, fmt.Sprintf("Saved %d, %d failed", sum.Saved, sum.Failed))
	}
	msg := fmt.Sprintf("Saved %d %s", sum.Saved, plural(sum.Saved, "image", "images"))
	if sum.Skipped > 0 {
		msg += fmt.Sprintf(", %d already on disk", sum.Skipped)
	}
	return m.pushToast(gallery.LevelSuccess, msg)
}

func (m *Model) quit() tea.Cmd {
	m.ctrl.Close()
	m.cancel()
	return tea.Quit
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
