package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay renders lookup progress. On a terminal it redraws a single
// status line; otherwise it prints a line every reportEvery lookups.
type ProgressDisplay struct {
	mu          sync.Mutex
	out         io.Writer
	total       int
	resumed     int
	done        int
	failed      int
	batch       int
	batches     int
	current     string
	startTime   time.Time
	interactive bool
	reportEvery int
}

// NewProgressDisplay creates a display for total accounts of which resumed
// were already handled by an earlier run
func NewProgressDisplay(out io.Writer, total, resumed int) *ProgressDisplay {
	return &ProgressDisplay{
		out:         out,
		total:       total,
		resumed:     resumed,
		startTime:   time.Now(),
		interactive: IsTerminal(out),
		reportEvery: 100,
	}
}

// StartBatch records the batch that is being worked on
func (p *ProgressDisplay) StartBatch(batch, batches int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch = batch
	p.batches = batches
}

// QueryFinished records one finished lookup
func (p *ProgressDisplay) QueryFinished(account string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if !success {
		p.failed++
	}
	p.current = account

	switch {
	case p.interactive:
		fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), p.line())
	case p.done%p.reportEvery == 0 || p.resumed+p.done == p.total:
		fmt.Fprintln(p.out, p.line())
	}
}

// line builds the status line
func (p *ProgressDisplay) line() string {
	processed := p.resumed + p.done
	progress := 0.0
	if p.total > 0 {
		progress = float64(processed) / float64(p.total)
	}
	const barWidth = 20
	filled := int(progress * barWidth)
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("[%s] %d/%d", bar, processed, p.total)
	if p.batches > 0 {
		line += fmt.Sprintf(" • batch %d/%d", p.batch, p.batches)
	}
	line += fmt.Sprintf(" • %s", p.calculateETA())
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}
	if p.interactive && p.current != "" {
		line += " • " + Dim(p.current)
	}
	return line
}

// Complete prints the final summary
func (p *ProgressDisplay) Complete(rows int, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive {
		fmt.Fprintln(p.out)
	}
	elapsed := time.Since(p.startTime)
	fmt.Fprintf(p.out, "%s Looked up %d accounts, %d rows written to %s\n",
		Green("✓"), p.done, rows, output)
	fmt.Fprintf(p.out, "  %s finished in %s\n", Dim("•"), formatDuration(elapsed))
	if p.failed > 0 {
		fmt.Fprintf(p.out, "  %s %d lookups failed\n", Dim("•"), p.failed)
	}
}

// Interrupted prints where the next run will resume
func (p *ProgressDisplay) Interrupted(checkpointPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "%s Stopped after %d lookups; rerun to resume from %s\n",
		Yellow("⚠"), p.done, checkpointPath)
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA() string {
	if p.done == 0 {
		return "calculating..."
	}
	remaining := p.total - p.resumed - p.done
	rate := float64(p.done) / time.Since(p.startTime).Seconds()
	if rate == 0 {
		return "calculating..."
	}
	eta := time.Duration(float64(remaining)/rate) * time.Second
	return formatDuration(eta) + " left"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
