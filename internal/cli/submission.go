package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/jobs"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/video"
)

// submission is one filled-in match form: what to label the thumbnail with,
// which parts to produce and where to put them. The TUI and the HTTP API both
// build one and turn it into a job.
type submission struct {
	Match     pipeline.Request
	OutputDir string
	Ext       string

	Thumbnail bool

	Video      bool
	VideoInput string
	Start      string
	End        string
}

// spec derives output paths from the match and validates both parts, so that
// input mistakes are reported before a job is queued.
func (s submission) spec() (jobs.Spec, error) {
	var spec jobs.Spec
	dir := s.OutputDir
	if dir == "" {
		dir = "."
	}

	if s.Thumbnail {
		ext := strings.TrimPrefix(s.Ext, ".")
		if ext == "" {
			ext = defaultExt
		}
		req := s.Match
		req.Output = pipeline.OutputPath(dir, req, ext)
		if err := req.Validate(); err != nil {
			return jobs.Spec{}, err
		}
		if err := errors.ValidateOutputPath(req.Output); err != nil {
			return jobs.Spec{}, err
		}
		if err := within(dir, req.Output); err != nil {
			return jobs.Spec{}, err
		}
		spec.Thumbnail = &req
	}

	if s.Video {
		trim := video.TrimRequest{
			Input:  s.VideoInput,
			Output: pipeline.OutputPath(dir, s.Match, "mp4"),
			Start:  s.Start,
			End:    s.End,
		}
		if err := trim.Validate(); err != nil {
			return jobs.Spec{}, err
		}
		if err := within(dir, trim.Output); err != nil {
			return jobs.Spec{}, err
		}
		spec.Video = &trim
	}
	return spec, nil
}

// within rejects output paths that leave dir. Derived file names embed the
// tournament, round and player names, which may contain separators or "..".
func within(dir, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.New(errors.ErrCodeInvalidPath, "output %q is outside %q", path, dir)
	}
	return nil
}

// matchFlags binds the label fields shared by compose, filename and trim.
type matchFlags struct {
	tournament string
	round      string
	date       string
	player1    string
	player2    string
}

func (f *matchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tournament, "tournament", "", "tournament name")
	cmd.Flags().StringVar(&f.round, "round", "", "round name (omitted from file names when empty)")
	cmd.Flags().StringVar(&f.date, "date", "", "date label")
	cmd.Flags().StringVar(&f.player1, "player1", "", "first player")
	cmd.Flags().StringVar(&f.player2, "player2", "", "second player")
}

func (f *matchFlags) request() pipeline.Request {
	return pipeline.Request{
		Tournament: f.tournament,
		Round:      f.round,
		Date:       f.date,
		Player1:    f.player1,
		Player2:    f.player2,
	}
}
