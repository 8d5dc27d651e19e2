package tui

import (
	"github.com/charmbracelet/lipgloss"

	"pixgallery/pkg/gallery"
)

var (
	// Neon palette
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	alertRed    = lipgloss.Color("#FF0000")
	darkBg      = lipgloss.Color("#0A0E27")
	dimWhite    = lipgloss.Color("#B0B0B0")
	dimGray     = lipgloss.Color("#626262")

	titleStyle = lipgloss.NewStyle().
			Background(neonMagenta).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	// Submit button, enabled and disabled
	buttonStyle = lipgloss.NewStyle().
			Foreground(darkBg).
			Background(neonCyan).
			Bold(true).
			Padding(0, 1)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(dimGray).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimGray).
			Width(cardInnerWidth).
			Padding(0, 1)

	cardSelectedStyle = cardStyle.
				BorderForeground(neonMagenta)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	loadMoreStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true).
			PaddingLeft(2)

	lightboxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(neonMagenta).
			Padding(1, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			PaddingLeft(2)

	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(neonGreen).
				Bold(true)

	toastFailureStyle = lipgloss.NewStyle().
				Foreground(alertRed).
				Bold(true)

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(neonOrange)

	rateLimitNormalStyle   = lipgloss.NewStyle().Foreground(neonGreen)
	rateLimitWarningStyle  = lipgloss.NewStyle().Foreground(neonOrange)
	rateLimitCriticalStyle = lipgloss.NewStyle().Foreground(alertRed)
)

// toastStyle picks the style for a notification level
func toastStyle(level gallery.Level) lipgloss.Style {
	switch level {
	case gallery.LevelSuccess:
		return toastSuccessStyle
	case gallery.LevelFailure:
		return toastFailureStyle
	default:
		return toastInfoStyle
	}
}

// rateLimitStyle picks a color from how much of the request window is used
func rateLimitStyle(usage float64) lipgloss.Style {
	switch {
	case usage >= 90:
		return rateLimitCriticalStyle
	case usage >= 70:
		return rateLimitWarningStyle
	default:
		return rateLimitNormalStyle
	}
}
