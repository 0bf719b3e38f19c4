// Package progress renders single-line, overwritable transfer progress.
package progress

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Ticks is the width of the progress bar.
const Ticks = 60

// Format renders one progress line. A zero total is treated as 1 and the
// denominator is raised to done when done exceeds it, so the bar never
// passes 100%. Uploads of unknown size report bytes only.
func Format(action transfertypes.Action, done, total int64, label string) string {
	if total <= 0 && action == transfertypes.ActionUploaded {
		return fmt.Sprintf("%s %s bytes %s", action, humanize.Comma(done), label)
	}

	effective := max(total, 1)
	if done > effective {
		effective = done
	}
	fraction := float64(done) / float64(effective)
	ticks := int(math.Round(fraction * Ticks))
	percent := int(math.Round(fraction * 100))

	var bar strings.Builder
	if ticks > 0 {
		bar.WriteString(strings.Repeat("=", ticks-1))
		bar.WriteString(">")
	}
	bar.WriteString(strings.Repeat(" ", Ticks-ticks))

	of := ""
	if total > 0 {
		of = " of " + humanize.Comma(total)
	}

	return fmt.Sprintf("[%s] %s %s%s bytes (%d%%) %s", bar.String(), action, humanize.Comma(done), of, percent, label)
}

// Reporter writes progress lines to an io.Writer and implements
// transfertypes.ProgressTracker.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	started bool
}

// NewReporter creates a Reporter that labels lines with label.
func NewReporter(w io.Writer, label string) *Reporter {
	return &Reporter{w: w, label: label}
}

// Update overwrites the current line.
func (r *Reporter) Update(action transfertypes.Action, bytesTransferred, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	_, _ = fmt.Fprint(r.w, Format(action, bytesTransferred, totalBytes, r.label)+"\r")
}

// Complete ends the progress line.
func (r *Reporter) Complete() {
	r.finish()
}

// Error ends the progress line so the error prints on its own line.
func (r *Reporter) Error(error) {
	r.finish()
}

func (r *Reporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		_, _ = fmt.Fprintln(r.w)
		r.started = false
	}
}

// Multi fans out progress events to several trackers. Nil trackers are skipped.
func Multi(trackers ...transfertypes.ProgressTracker) transfertypes.ProgressTracker {
	var live []transfertypes.ProgressTracker
	for _, t := range trackers {
		if t != nil {
			live = append(live, t)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return multi(live)
}

type multi []transfertypes.ProgressTracker

func (m multi) Update(action transfertypes.Action, done, total int64) {
	for _, t := range m {
		t.Update(action, done, total)
	}
}

func (m multi) Complete() {
	for _, t := range m {
		t.Complete()
	}
}

func (m multi) Error(err error) {
	for _, t := range m {
		t.Error(err)
	}
}
