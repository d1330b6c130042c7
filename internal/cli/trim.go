package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/video"
)

// trimCommand creates the trim command, which cuts a match out of a recording.
func (c *CLI) trimCommand() *cobra.Command {
	var (
		match     matchFlags
		req       video.TrimRequest
		outputDir string
		ffmpeg    string
	)

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Cut a match out of a recording with ffmpeg",
		Long: `Cut the [--start, --end] range out of --input without re-encoding.

The output file is either given with --output, or derived from the match as
"{tournament} - {round} - {player1} vs {player2}.mp4" inside --output-dir.`,
		Example: `  matchthumb trim --input stream.mp4 --start 01:02:03 --end 01:10:00 \
    --tournament "Spring Open" --player1 Alice --player2 Bob --output-dir out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Output == "" {
				if outputDir == "" {
					outputDir = "."
				}
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return errors.Wrap(errors.ErrCodeCompositionIO, err, "create %s", outputDir)
				}
				req.Output = pipeline.OutputPath(outputDir, match.request(), "mp4")
			}

			trimmer := c.newTrimmer(ffmpeg)
			prog := newProgress(c.Logger)
			err := withSpinner(os.Stderr, "Working on it...", func() error {
				return trimmer.Trim(cmd.Context(), req)
			})
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			printSuccess("Finished generating video!")
			printFile(req.Output)
			prog.done("Trimmed video")
			return nil
		},
	}

	match.bind(cmd)
	cmd.Flags().StringVarP(&req.Input, "input", "i", "", "recording to cut")
	cmd.Flags().StringVar(&req.Start, "start", "", "start timestamp (HH:MM:SS)")
	cmd.Flags().StringVar(&req.End, "end", "", "end timestamp (HH:MM:SS)")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "output directory (file name derived from the match)")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", envOr(envFFmpeg, video.DefaultFFmpeg), "ffmpeg executable (env "+envFFmpeg+")")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
