package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixgallery/pkg/gallery"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ui"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	snap := m.ctrl.Snapshot()
	sections := []string{
		m.renderHeader(),
		m.renderInput(snap),
		m.renderStatus(snap),
	}

	if m.ctrl.Lightbox().IsOpen() {
		sections = append(sections, m.renderLightbox())
	} else {
		sections = append(sections, m.renderGrid(snap))
		if footer := m.renderGridFooter(snap); footer != "" {
			sections = append(sections, footer)
		}
	}

	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, helpStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title and the request quota
func (m *Model) renderHeader() string {
	title := titleStyle.Render(" PIXGALLERY ")
	if m.limiter == nil || m.requestLimit <= 0 {
		return title
	}

	remaining := m.limiter.Remaining()
	used := m.requestLimit - remaining
	usage := float64(used) / float64(m.requestLimit) * 100
	quota := fmt.Sprintf("%s %s %s",
		statsLabelStyle.Render("API"),
		rateLimitStyle(usage).Render(ui.Bar(remaining, m.requestLimit, 10)),
		statsValueStyle.Render(fmt.Sprintf("%d/%d", remaining, m.requestLimit)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", quota)
}

// renderInput renders the search field and the submit button
func (m *Model) renderInput(snap gallery.Snapshot) string {
	button := buttonDisabledStyle.Render("Search")
	if snap.CanSubmit {
		button = buttonStyle.Render("Search")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.input.View(), " ", button)
}

func (m *Model) renderStatus(snap gallery.Snapshot) string {
	if m.loading {
		return fmt.Sprintf("%s %s", m.spinner.View(), dimStyle.Render("Loading..."))
	}
	if snap.Query == "" || len(snap.Items) == 0 {
		return dimStyle.Render(" ")
	}

	loadedPages := snap.Page - 1
	status := fmt.Sprintf("%s %s  %s %s  %s %s",
		statsLabelStyle.Render("Query:"), statsValueStyle.Render(snap.Query),
		statsLabelStyle.Render("Showing:"), statsValueStyle.Render(fmt.Sprintf("%d of %d", len(snap.Items), snap.TotalHits)),
		statsLabelStyle.Render("Pages:"), statsValueStyle.Render(fmt.Sprintf("%d", loadedPages)),
	)
	if m.saving {
		status += "  " + dimStyle.Render("saving...")
	}
	return status
}

// renderGrid renders the visible rows of cards
func (m *Model) renderGrid(snap gallery.Snapshot) string {
	if len(snap.Items) == 0 {
		return ""
	}

	cols := m.gridColumns()
	start := m.topRow * cols
	end := start + m.visibleRows()*cols
	if end > len(snap.Items) {
		end = len(snap.Items)
	}

	var rows []string
	for rowStart := start; rowStart < end; rowStart += cols {
		var cards []string
		for i := rowStart; i < rowStart+cols && i < end; i++ {
			if len(cards) > 0 {
				cards = append(cards, strings.Repeat(" ", cardGap))
			}
			cards = append(cards, renderCard(i, snap.Items[i], m.focus == focusGrid && i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderGridFooter(snap gallery.Snapshot) string {
	switch {
	case snap.ShowLoadMore && m.infiniteScroll:
		return dimStyle.Render("  scroll to the last card for more")
	case snap.ShowLoadMore:
		return loadMoreStyle.Render("[m] Load more")
	case snap.EndReached && len(snap.Items) > 0:
		return dimStyle.Render("  " + gallery.MsgEndOfResults)
	}
	return ""
}

// renderCard renders one thumbnail card
func renderCard(index int, hit pixabay.Hit, selected bool) string {
	style := cardStyle
	if selected {
		style = cardSelectedStyle
	}

	lines := []string{
		cardTitleStyle.Render(fmt.Sprintf("#%d", index+1)) + dimStyle.Render(fmt.Sprintf("  %dx%d", hit.ImageWidth, hit.ImageHeight)),
		ui.Truncate(hit.Tags, cardInnerWidth-2),
		fmt.Sprintf("♥ %s  views %s", ui.Compact(hit.Likes), ui.Compact(hit.Views)),
		fmt.Sprintf("comments %s  dl %s", ui.Compact(hit.Comments), ui.Compact(hit.Downloads)),
		dimStyle.Render(ui.Truncate("by "+hit.User, cardInnerWidth-2)),
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderLightbox renders the selected image's full details
func (m *Model) renderLightbox() string {
	lb := m.ctrl.Lightbox()
	hit, ok := lb.Current()
	if !ok {
		return ""
	}
	idx, total := lb.Position()

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(fmt.Sprintf("%-12s", label)), statsValueStyle.Render(value))
	}
	content := []string{
		titleStyle.Render(fmt.Sprintf(" IMAGE %d / %d ", idx+1, total)),
		"",
		row("Tags:", hit.Tags),
		row("Author:", hit.User),
		row("Resolution:", fmt.Sprintf("%dx%d", hit.ImageWidth, hit.ImageHeight)),
		row("Size:", ui.FormatBytes(hit.ImageSize)),
		row("Likes:", fmt.Sprintf("%d", hit.Likes)),
		row("Views:", fmt.Sprintf("%d", hit.Views)),
		row("Downloads:", fmt.Sprintf("%d", hit.Downloads)),
		row("Comments:", fmt.Sprintf("%d", hit.Comments)),
		"",
		row("Full size:", hit.FullSizeURL()),
		row("Page:", hit.PageURL),
		"",
		dimStyle.Render("←/→ browse • s save • esc close"),
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	return lightboxStyle.Width(width).Render(strings.Join(content, "\n"))
}

func (m *Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		lines = append(lines, toastStyle(t.note.Level).Render("● "+t.note.Message))
	}
	return strings.Join(lines, "\n")
}
