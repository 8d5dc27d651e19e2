package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the gallery
type keyMap struct {
	// Global
	Quit key.Binding
	Help key.Binding

	// Search input
	Submit      key.Binding
	HistoryUp   key.Binding
	HistoryDown key.Binding
	FocusGrid   key.Binding

	// Gallery grid
	FocusInput key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Open       key.Binding
	LoadMore   key.Binding
	Save       key.Binding
	SaveAll    key.Binding

	// Lightbox
	Prev  key.Binding
	Next  key.Binding
	Close key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Search"),
		),
		HistoryUp: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("up", "Older query"),
		),
		HistoryDown: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("down", "Newer query"),
		),
		FocusGrid: key.NewBinding(
			key.WithKeys("tab", "esc"),
			key.WithHelp("tab", "Browse results"),
		),

		FocusInput: key.NewBinding(
			key.WithKeys("/", "tab"),
			key.WithHelp("/", "Edit query"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Move right"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open lightbox"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save image"),
		),
		SaveAll: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Save all"),
		),

		Prev: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("left", "Previous image"),
		),
		Next: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("right", "Next image"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "enter", "q"),
			key.WithHelp("esc", "Close lightbox"),
		),
	}
}

// ShortHelp returns key bindings for the short help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.FocusInput, k.Open, k.LoadMore, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.HistoryUp, k.HistoryDown, k.FocusGrid},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Open, k.LoadMore, k.Save, k.SaveAll, k.FocusInput},
		{k.Prev, k.Next, k.Close},
		{k.Help, k.Quit},
	}
}
