package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
)

// composeCommand creates the compose command for rendering one thumbnail.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		match     matchFlags
		sprite1   string
		sprite2   string
		output    string
		outputDir string
		ext       string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Render a match thumbnail",
		Long: `Render a match thumbnail from the template document.

The output file is either given with --output, or derived from the match as
"{tournament} - {round} - {player1} vs {player2}.{ext}" inside --output-dir.
The extension selects the encoder: jpg, png, gif, tif or bmp.`,
		Example: `  matchthumb compose --tournament "Spring Open" --round "Grand Final" \
    --player1 Alice --sprite1 ryu.png --player2 Bob --sprite2 ken.png --output-dir out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && outputDir != "" {
				return errors.New(errors.ErrCodeInvalidInput, "--output and --output-dir are mutually exclusive")
			}

			req := match.request()
			req.Sprite1 = sprite1
			req.Sprite2 = sprite2
			req.Output = output
			if req.Output == "" {
				if outputDir == "" {
					outputDir = "."
				}
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return errors.Wrap(errors.ErrCodeCompositionIO, err, "create %s", outputDir)
				}
				req.Output = pipeline.OutputPath(outputDir, req, ext)
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			var result *pipeline.Result
			err = withSpinner(os.Stderr, "Working on it...", func() error {
				var err error
				result, err = runner.Compose(cmd.Context(), req)
				return err
			})
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			printSuccess("Finished generating thumbnail!")
			printFile(result.Output)
			printCacheInfo(result.CacheInfo)
			printDetail("%d layers · %dx%d · sha256 %s", result.Stats.Layers, result.Stats.Width, result.Stats.Height, result.Digest[:12])
			prog.done("Composed thumbnail")
			return nil
		},
	}

	match.bind(cmd)
	cmd.Flags().StringVar(&sprite1, "sprite1", "", "sprite of the first player (see 'matchthumb sprites')")
	cmd.Flags().StringVar(&sprite2, "sprite2", "", "sprite of the second player")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "output directory (file name derived from the match)")
	cmd.Flags().StringVar(&ext, "ext", defaultExt, "output extension when using --output-dir")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "decode and render every layer from scratch")
	_ = cmd.MarkFlagRequired("sprite1")
	_ = cmd.MarkFlagRequired("sprite2")
	_ = cmd.RegisterFlagCompletionFunc("sprite1", c.completeSprites)
	_ = cmd.RegisterFlagCompletionFunc("sprite2", c.completeSprites)

	return cmd
}

// filenameCommand creates the filename command, which prints the file name
// the other commands derive for a match.
func (c *CLI) filenameCommand() *cobra.Command {
	var (
		match matchFlags
		ext   string
	)

	cmd := &cobra.Command{
		Use:   "filename",
		Short: "Print the output file name for a match",
		Example: `  matchthumb filename --tournament "Spring Open" --player1 Alice --player2 Bob --ext mp4
  Spring Open - Alice vs Bob.mp4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.Filename(match.tournament, match.round, match.player1, match.player2, ext))
			return nil
		},
	}

	match.bind(cmd)
	cmd.Flags().StringVar(&ext, "ext", defaultExt, "file extension")
	return cmd
}
