package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixgallery/pkg/pixabay"
)

// CardWidth is the width of a rendered card including its border
const CardWidth = 36

// RenderCard renders one result as a boxed text card
func RenderCard(index int, hit pixabay.Hit) string {
	inner := CardWidth - 4
	lines := []string{
		fmt.Sprintf("#%d  id %d", index+1, hit.ID),
		Truncate(hit.Tags, inner),
		fmt.Sprintf("♥ %s  views %s", Compact(hit.Likes), Compact(hit.Views)),
		fmt.Sprintf("comments %s  downloads %s", Compact(hit.Comments), Compact(hit.Downloads)),
		Truncate("by "+hit.User, inner),
	}

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", CardWidth-2) + "┐\n")
	for _, l := range lines {
		b.WriteString("│ " + padRight(l, inner) + " │\n")
	}
	b.WriteString("└" + strings.Repeat("─", CardWidth-2) + "┘")
	return b.String()
}

// PrintCards writes hits as cards, numbering from offset
func PrintCards(w io.Writer, hits []pixabay.Hit, offset int) {
	for i, hit := range hits {
		fmt.Fprintln(w, RenderCard(offset+i, hit))
		fmt.Fprintln(w, Dim("  "+hit.PageURL))
	}
}

// Compact shortens large counts, e.g. 12345 -> 12.3k
func Compact(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Truncate cuts s to at most width runes, marking the cut with an ellipsis
func Truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
