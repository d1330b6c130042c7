// Package video trims match recordings with an external ffmpeg binary.
//
// Trimming is a stream copy between two timestamps: nothing is re-encoded,
// so it is fast but cuts land on the nearest keyframes.
package video

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/observability"
)

// DefaultFFmpeg is the executable looked up on PATH when none is configured.
const DefaultFFmpeg = "ffmpeg"

// TrimRequest selects the [Start, End] range of Input and writes it to Output.
// Timestamps are HH:MM:SS.
type TrimRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Validate checks paths and timestamps without touching the filesystem.
func (r TrimRequest) Validate() error {
	if r.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input video is required")
	}
	if err := errors.ValidateOutputPath(r.Output); err != nil {
		return err
	}
	if err := errors.ValidateTimestamp(r.Start); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "start")
	}
	if err := errors.ValidateTimestamp(r.End); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "end")
	}
	if seconds(r.End) <= seconds(r.Start) {
		return errors.New(errors.ErrCodeInvalidInput, "end %s is not after start %s", r.End, r.Start)
	}
	return nil
}

// seconds converts a validated HH:MM:SS timestamp.
func seconds(ts string) int {
	parts := strings.Split(ts, ":")
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	return h*3600 + m*60 + s
}

// Args returns the ffmpeg arguments for r. Existing output files are overwritten.
func (r TrimRequest) Args() []string {
	return []string{
		"-ss", r.Start,
		"-to", r.End,
		"-i", r.Input,
		"-c", "copy",
		"-y", r.Output,
	}
}

// Trimmer runs ffmpeg.
type Trimmer struct {
	FFmpeg string
	Logger *log.Logger
}

// NewTrimmer creates a trimmer for the given executable.
// An empty path means [DefaultFFmpeg].
func NewTrimmer(ffmpeg string, logger *log.Logger) *Trimmer {
	if ffmpeg == "" {
		ffmpeg = DefaultFFmpeg
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Trimmer{FFmpeg: ffmpeg, Logger: logger}
}

// Trim runs ffmpeg for r and waits for it to exit. Cancelling ctx kills the
// process. On failure the returned EXTERNAL_PROCESS error carries ffmpeg's
// combined output.
func (t *Trimmer) Trim(ctx context.Context, r TrimRequest) (err error) {
	if err := r.Validate(); err != nil {
		return err
	}

	start := time.Now()
	defer func() { observability.Pipeline().OnTrimComplete(ctx, time.Since(start), err) }()

	cmd := exec.CommandContext(ctx, t.FFmpeg, r.Args()...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	t.Logger.Debug("running ffmpeg", "path", t.FFmpeg, "args", strings.Join(r.Args(), " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeExternalProcess, ctx.Err(), "trim %s", r.Input)
		}
		return errors.Wrap(errors.ErrCodeExternalProcess, err, "trim %s: %s", r.Input, tail(out.String()))
	}

	t.Logger.Info("trimmed video", "output", r.Output, "start", r.Start, "end", r.End)
	return nil
}

// tail keeps the last few lines of ffmpeg output, where the error usually is.
func tail(s string) string {
	const maxLines = 5
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
