// Package cli implements the matchthumb command-line interface.
//
// The CLI composes thumbnails from a template document, trims match videos
// with ffmpeg, and hosts the two interactive surfaces: a terminal form and an
// HTTP API. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - compose: Render one thumbnail from flags
//   - filename: Print the file name derived for a match
//   - sprites: List the selectable sprite identifiers
//   - trim: Cut a time range out of a recording
//   - serve: Run the HTTP API with a job queue
//   - tui: Fill in a match interactively and submit it
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. One logger is
// created per process and shared by the configuration store, the pipeline
// and the job dispatcher.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress measures an operation and logs its completion with elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Composed thumbnail (84ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.elapsed())
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}
