package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/petergi/segysak-cli/internal/tui"
)

// runBrowser starts the interactive viewer. Tests swap it out.
var runBrowser = tui.Run

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse the headers of a SEG-Y file interactively",
		Long: `Open a full-screen viewer over the textual, binary and trace headers
of a SEG-Y file.

Keys: tab switches pane, n/p move between traces, g/G jump to the first or
last trace, arrows scroll and q quits.`,
		Example: `  segysak browse survey.sgy`,
		Args:    existingFiles(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runBrowser(cmd.Context(), args[0],
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if err != nil {
				return fmt.Errorf("browse %s: %w", args[0], err)
			}
			return nil
		},
	}
}
