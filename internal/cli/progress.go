package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/petergi/segysak-cli/internal/operations"
)

const (
	progressAuto   = "auto"
	progressSimple = "simple"
	progressNone   = "none"
)

func parseProgressMode(s string) (string, error) {
	switch s {
	case progressAuto, progressSimple, progressNone:
		return s, nil
	default:
		return "", fmt.Errorf("invalid progress mode: %s (valid: auto, simple, none)", s)
	}
}

// isTerminal returns true if w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useBar reports whether mode asks for a progress bar on w.
func useBar(mode string, w io.Writer) bool {
	return mode == progressAuto && isTerminal(w)
}

func newBar(w io.Writer, total int, desc string, colorEnabled bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(colorEnabled),
	)
}

// traceProgress reports the traces converted for a single file. The bar is
// created on the first callback, once the trace count is known.
type traceProgress struct {
	w            io.Writer
	mode         string
	colorEnabled bool
	desc         string

	bar      *progressbar.ProgressBar
	lastStep int
}

func newTraceProgress(w io.Writer, mode string, colorEnabled bool, desc string) *traceProgress {
	return &traceProgress{w: w, mode: mode, colorEnabled: colorEnabled, desc: desc, lastStep: -1}
}

// Update matches operations.ConvertOptions.Progress.
func (p *traceProgress) Update(done, total int) {
	if p.mode == progressNone || total <= 0 {
		return
	}

	if useBar(p.mode, p.w) {
		if p.bar == nil {
			p.bar = newBar(p.w, total, p.desc, p.colorEnabled)
		}
		_ = p.bar.Set(done)
		return
	}

	// Simple text progress, one line per 10%
	step := done * 10 / total
	if step != p.lastStep {
		p.lastStep = step
		fmt.Fprintf(p.w, "Progress: %d/%d traces (%d%%)\n", done, total, step*10)
	}
}

// Finish clears the bar if one was drawn.
func (p *traceProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// watchBatch renders the progress updates of processor until the channel is
// closed or stop is called.
func watchBatch(processor *operations.BatchProcessor, w io.Writer, mode string, colorEnabled bool, total int) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	if mode == progressNone {
		close(finished)
		return func() { close(done) }
	}

	var bar *progressbar.ProgressBar
	if useBar(mode, w) {
		bar = newBar(w, total, "Converting", colorEnabled)
	}

	go func() {
		defer close(finished)
		lastReported := -1
		for {
			select {
			case <-done:
				return
			case update, ok := <-processor.ProgressChannel():
				if !ok {
					return
				}
				if bar != nil {
					_ = bar.Set(update.Completed)
					continue
				}
				if update.Completed != lastReported {
					lastReported = update.Completed
					fmt.Fprintf(w, "Progress: %d/%d files completed...\n", update.Completed, update.Total)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		if bar != nil {
			_ = bar.Finish()
		}
	}
}
