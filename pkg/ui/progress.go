package ui

import (
	"fmt"
	"strings"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// Bar renders current/max as a fixed-width bar
func Bar(current, max, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 {
		filled = current * width / max
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// QuotaStatus renders the remaining API quota, e.g. "[████░░] 64/100"
func QuotaStatus(remaining, limit int) string {
	if limit <= 0 {
		return "quota unknown"
	}
	return fmt.Sprintf("[%s] %d/%d", Bar(remaining, limit, 20), remaining, limit)
}
