package display

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress is a stage progress bar on stderr. A disabled or nil Progress is
// a no-op, so callers need not branch on TTY state. Add is safe for
// concurrent use.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar for total steps. Pass enabled=false when stderr
// is not a terminal.
func NewProgress(total int, description string, enabled bool) *Progress {
	if !enabled || total <= 0 {
		return &Progress{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {}),
	)
	return &Progress{bar: bar}
}

// Add advances the bar by one step.
func (p *Progress) Add() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
