package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// spritesCommand creates the sprites command, which lists the sprite
// identifiers accepted by --sprite1 and --sprite2.
func (c *CLI) spritesCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "sprites",
		Short: "List selectable sprites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.loadStore()
			if err != nil {
				return err
			}
			sprites := store.Sprites()
			if plain {
				for _, s := range sprites {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			}

			snap := store.Current()
			printKeyValue("Template", store.Path())
			printKeyValue("Sprite dir", snap.Template.Resolve(snap.Template.SpriteDir))
			printNewline()
			writeSpriteTable(cmd.OutOrStdout(), sprites)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print one identifier per line")
	return cmd
}

// writeSpriteTable renders the sprite list as a numbered table.
func writeSpriteTable(w io.Writer, sprites []string) {
	if len(sprites) == 0 {
		fmt.Fprintln(w, StyleWarning.Render("no sprites found"))
		return
	}

	rows := make([][]string, len(sprites))
	for i, s := range sprites {
		rows[i] = []string{strconv.Itoa(i + 1), s}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Sprite").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleDim
			}
			return StyleValue
		})

	fmt.Fprintln(w, t.Render())
}
