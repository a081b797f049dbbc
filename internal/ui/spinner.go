// Package ui provides terminal progress feedback for long-running
// commands. The spinner only animates on an interactive stderr; in
// pipes and CI it degrades to plain line output.
package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner wraps a terminal spinner with a non-TTY fallback.
type Spinner struct {
	inner   *spinner.Spinner
	tty     bool
	message string
}

// NewSpinner creates a spinner with an initial status message.
func NewSpinner(message string) *Spinner {
	s := &Spinner{
		tty:     isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
		message: message,
	}
	if s.tty {
		s.inner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.inner.Suffix = " " + message
	}
	return s
}

// Start begins the animation. On a non-TTY it prints the message once.
func (s *Spinner) Start() {
	if s.tty {
		s.inner.Start()
		return
	}
	fmt.Fprintln(os.Stderr, s.message)
}

// Updatef replaces the status message.
func (s *Spinner) Updatef(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.tty {
		s.inner.Suffix = " " + msg
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Stop halts the animation and prints a final message.
func (s *Spinner) Stop(final string) {
	if s.tty {
		s.inner.Stop()
	}
	if final != "" {
		fmt.Fprintln(os.Stderr, final)
	}
}
