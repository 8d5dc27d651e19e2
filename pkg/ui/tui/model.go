package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixgallery/internal/downloader"
	"pixgallery/pkg/gallery"
	"pixgallery/pkg/history"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ratelimit"
)

const (
	cardInnerWidth = 28
	// border plus padding around the inner width
	cardOuterWidth = cardInnerWidth + 4
	cardLines      = 5
	cardHeight     = cardLines + 2
	cardGap        = 1

	// rows taken by the title, input, status, load-more, toasts and help
	chromeHeight = 8
	maxToasts    = 3

	defaultToastTTL = 4 * time.Second
	defaultDebounce = 300 * time.Millisecond
)

// SaveFunc writes full-size images to disk
type SaveFunc func(ctx context.Context, hits []pixabay.Hit, query string) []downloader.Result

// Options wires the model to the rest of the application
type Options struct {
	Controller *gallery.Controller
	// Notifications must be the notifier the controller was built with
	Notifications *Notifier
	// History enables up/down recall and records submitted queries
	History *history.Manager
	// Save enables s and S; nil hides them
	Save SaveFunc
	// Limiter and RequestLimit feed the quota indicator
	Limiter        ratelimit.Limiter
	RequestLimit   int
	InfiniteScroll bool
	ScrollDebounce time.Duration
	// Columns fixes the grid width; zero fits the terminal
	Columns  int
	ToastTTL time.Duration
	Logger   logger.Logger
}

type focusArea int

const (
	focusInput focusArea = iota
	focusGrid
)

type toast struct {
	id   int
	note gallery.Notification
}

// Model is the gallery TUI state
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl    *gallery.Controller
	notes   *Notifier
	history *history.Manager
	nav     *history.Navigator
	save    SaveFunc
	limiter ratelimit.Limiter
	logger  logger.Logger

	// UI components
	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	// UI state
	width     int
	height    int
	focus     focusArea
	cursor    int
	topRow    int
	columns   int
	loading   bool
	fetchSeq  int
	saving    bool
	scrollSeq int

	requestLimit   int
	infiniteScroll bool
	debounce       time.Duration

	toasts      []toast
	nextToastID int
	toastTTL    time.Duration
}

// NewModel creates the gallery model
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Notifications == nil {
		opts.Notifications = NewNotifier(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.ScrollDebounce <= 0 {
		opts.ScrollDebounce = defaultDebounce
	}
	if opts.ToastTTL <= 0 {
		opts.ToastTTL = defaultToastTTL
	}
	ctx, cancel := context.WithCancel(ctx)
	log := opts.Logger.WithField("component", "tui")

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Search images..."
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	var queries []string
	if opts.History != nil {
		var err error
		if queries, err = opts.History.Queries(); err != nil {
			log.WithError(err).Warn("failed to load search history")
		}
	}

	return &Model{
		ctx:            ctx,
		cancel:         cancel,
		ctrl:           opts.Controller,
		notes:          opts.Notifications,
		history:        opts.History,
		nav:            history.NewNavigator(queries),
		save:           opts.Save,
		limiter:        opts.Limiter,
		logger:         log,
		input:          ti,
		spinner:        s,
		help:           help.New(),
		keys:           DefaultKeyMap(),
		columns:        opts.Columns,
		requestLimit:   opts.RequestLimit,
		infiniteScroll: opts.InfiniteScroll,
		debounce:       opts.ScrollDebounce,
		toastTTL:       opts.ToastTTL,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// gridColumns is the number of cards per row
func (m *Model) gridColumns() int {
	if m.columns > 0 {
		return m.columns
	}
	if n := m.width / (cardOuterWidth + cardGap); n > 0 {
		return n
	}
	return 1
}

// visibleRows is how many card rows fit under the chrome
func (m *Model) visibleRows() int {
	if n := (m.height - chromeHeight) / cardHeight; n > 0 {
		return n
	}
	return 1
}

func (m *Model) totalRows(items int) int {
	cols := m.gridColumns()
	return (items + cols - 1) / cols
}

// lastCardVisible reports whether the final card is on screen
func (m *Model) lastCardVisible(items int) bool {
	if items == 0 {
		return false
	}
	last := (items - 1) / m.gridColumns()
	return last >= m.topRow && last < m.topRow+m.visibleRows()
}

// ensureCursorVisible scrolls so the cursor row is on screen
func (m *Model) ensureCursorVisible() {
	row := m.cursor / m.gridColumns()
	if row < m.topRow {
		m.topRow = row
	}
	if visible := m.visibleRows(); row >= m.topRow+visible {
		m.topRow = row - visible + 1
	}
}

// scrollBy advances the view by rows, keeping the cursor on screen
func (m *Model) scrollBy(rows, items int) {
	maxTop := m.totalRows(items) - m.visibleRows()
	if maxTop < 0 {
		maxTop = 0
	}
	m.topRow += rows
	if m.topRow > maxTop {
		m.topRow = maxTop
	}
	if m.topRow < 0 {
		m.topRow = 0
	}

	cols := m.gridColumns()
	if m.cursor/cols < m.topRow {
		m.cursor = m.topRow * cols
	}
}

func (m *Model) resetGrid() {
	m.cursor = 0
	m.topRow = 0
}

// addToasts turns queued notifications into toasts with expiry timers
func (m *Model) addToasts() tea.Cmd {
	var cmds []tea.Cmd
	for _, note := range m.notes.Drain() {
		m.nextToastID++
		id := m.nextToastID
		m.toasts = append(m.toasts, toast{id: id, note: note})
		cmds = append(cmds, tea.Tick(m.toastTTL, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		}))
	}
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return tea.Batch(cmds...)
}

func (m *Model) pushToast(level gallery.Level, msg string) tea.Cmd {
	m.notes.Notify(gallery.Notification{Level: level, Message: msg})
	return m.addToasts()
}

func (m *Model) removeToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}
