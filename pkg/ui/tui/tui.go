// Package tui is the interactive gallery: a search field, a grid of result
// cards, a lightbox overlay and toast notifications.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the gallery and blocks until the user quits or ctx ends
func Run(ctx context.Context, opts Options) error {
	model := NewModel(ctx, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := program.Run()
	model.cancel()
	if opts.Controller != nil {
		opts.Controller.Close()
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
