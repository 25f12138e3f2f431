package transfer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter renders a live progress line for one running transfer.
type Reporter struct {
	mu          sync.Mutex
	out         io.Writer
	total       int64
	written     int64
	ops         int64
	start       time.Time
	lastRender  time.Time
	minInterval time.Duration
	rendered    bool
}

// NewReporter writes progress updates to out, at most a few times per
// second.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:         out,
		start:       time.Now(),
		minInterval: 200 * time.Millisecond,
	}
}

// Update records the cursor position. Safe for concurrent use.
func (r *Reporter) Update(written, ops, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.written = written
	r.ops = ops
	r.total = total

	now := time.Now()
	if now.Sub(r.lastRender) < r.minInterval {
		return
	}
	r.lastRender = now
	r.render()
}

// Finish renders the final state and terminates the progress line. No-op
// when no update was ever rendered.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.rendered {
		return
	}
	r.render()
	fmt.Fprintln(r.out)
}

func (r *Reporter) render() {
	r.rendered = true

	percent := 0.0
	if r.total > 0 {
		percent = float64(r.written) / float64(r.total) * 100.0
	}

	speed := ""
	if elapsed := time.Since(r.start).Seconds(); elapsed > 0 && r.written > 0 {
		bps := float64(r.written) / elapsed
		speed = fmt.Sprintf(" - %s/s", humanize.IBytes(uint64(bps)))
		if remaining := r.total - r.written; remaining > 0 && bps > 0 {
			eta := time.Duration(float64(remaining)/bps) * time.Second
			speed += fmt.Sprintf(" - ETA %s", formatDuration(eta))
		}
	}

	fmt.Fprintf(r.out, "\rProgress: %.1f%% (%s/%s) - operations: %d%s",
		percent, humanize.IBytes(uint64(r.written)), humanize.IBytes(uint64(r.total)), r.ops, speed)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.0fh", d.Hours())
}
