package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// spinnerFrames are shared by the command-line spinner and the TUI status line.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status message on one line of w until stopped.
type spinner struct {
	w       io.Writer
	message string

	once    sync.Once
	quit    chan struct{}
	stopped chan struct{}
}

// startSpinner starts animating message on w.
func startSpinner(w io.Writer, message string) *spinner {
	s := &spinner{
		w:       w,
		message: message,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
		select {
		case <-s.quit:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
			return
		case <-ticker.C:
		}
	}
}

// stop clears the line and waits for the animation to end. It is safe to
// call more than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.stopped
}

// withSpinner runs fn while a spinner shows message on w.
func withSpinner(w io.Writer, message string, fn func() error) error {
	s := startSpinner(w, message)
	defer s.stop()
	return fn()
}
