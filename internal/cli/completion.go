package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for matchthumb.

Besides commands and flags, the scripts complete --sprite1 and --sprite2
with the sprites of the template named by --config.

To load completions:

Bash:
  $ source <(matchthumb completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ matchthumb completion bash > /etc/bash_completion.d/matchthumb
  # macOS:
  $ matchthumb completion bash > $(brew --prefix)/etc/bash_completion.d/matchthumb

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ matchthumb completion zsh > "${fpath[1]}/_matchthumb"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ matchthumb completion fish | source

  # To load completions for each session, execute once:
  $ matchthumb completion fish > ~/.config/fish/completions/matchthumb.fish

PowerShell:
  PS> matchthumb completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> matchthumb completion powershell > matchthumb.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeSprites completes sprite identifiers from the template's sprite
// directory. Load failures yield no suggestions rather than an error.
func (c *CLI) completeSprites(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := c.loadStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, s := range store.Sprites() {
		if strings.HasPrefix(s, toComplete) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
