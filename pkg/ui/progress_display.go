package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay is a single-line download progress indicator
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	label      string
	total      int
	saved      int
	skipped    int
	errors     int
	current    int
	startTime  time.Time
	bytesSaved int64
	isDebug    bool
	now        func() time.Time
}

// NewProgressDisplay creates a display for total images under label
func NewProgressDisplay(out io.Writer, label string, total int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		label:     label,
		total:     total,
		startTime: time.Now(),
		isDebug:   debug,
		now:       time.Now,
	}
}

// StartDownload marks image id as in progress
func (p *ProgressDisplay) StartDownload(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = id
	if !p.isDebug {
		p.printProgress()
	}
}

// CompleteDownload records a finished image
func (p *ProgressDisplay) CompleteDownload(id int, size int64, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if skipped {
		p.skipped++
	} else {
		p.saved++
		p.bytesSaved += size
	}

	if p.isDebug {
		status := FormatBytes(size)
		if skipped {
			status = "already saved"
		}
		fmt.Fprintf(p.out, "%s %d • %s\n", Green("✓"), id, Dim(status))
		return
	}
	p.printProgress()
}

// FailDownload records a failed image
func (p *ProgressDisplay) FailDownload(id int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
	if p.isDebug {
		fmt.Fprintf(p.out, "%s Failed: %d - %v\n", Red("✗"), id, err)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) done() int {
	return p.saved + p.skipped + p.errors
}

func (p *ProgressDisplay) printProgress() {
	line := fmt.Sprintf("%s [%s] %d/%d • %s • %s",
		Cyan(p.label),
		strings.ReplaceAll(strings.ReplaceAll(Bar(p.done(), p.total, 20), ProgressBar, "━"), ProgressEmpty, "─"),
		p.done(),
		p.total,
		FormatBytes(p.bytesSaved),
		p.eta(),
	)
	if p.current != 0 {
		line += fmt.Sprintf(" • #%d", p.current)
	}
	if p.errors > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.errors))
	}

	fmt.Fprintf(p.out, "\r\033[K%s", line)
}

// Complete prints the summary line
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)
	fmt.Fprintf(p.out, "\n%s Saved %d images for %q\n", Green("✓"), p.saved, p.label)
	fmt.Fprintf(p.out, "  %s %s in %s\n", Dim("•"), FormatBytes(p.bytesSaved), FormatDuration(elapsed))
	if p.skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d already saved\n", Dim("•"), p.skipped)
	}
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %s %d downloads failed\n", Dim("•"), p.errors)
	}
}

func (p *ProgressDisplay) eta() string {
	done := p.done()
	if done == 0 {
		return "calculating..."
	}
	elapsed := p.now().Sub(p.startTime)
	rate := float64(done) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}
	remaining := p.total - done
	return FormatDuration(time.Duration(float64(remaining)/rate) * time.Second)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
