package output

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress while the model call runs. It is a no-op when the
// writer is not a terminal, so piped output stays clean.
type Spinner struct {
	s *spinner.Spinner
}

// StartSpinner starts a spinner on w with the given suffix text.
func StartSpinner(w io.Writer, suffix string) *Spinner {
	if !IsTerminal(w) {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return &Spinner{s: s}
}

// Stop stops the spinner. Safe to call more than once and on a nil Spinner.
func (sp *Spinner) Stop() {
	if sp == nil || sp.s == nil {
		return
	}
	sp.s.Stop()
}
