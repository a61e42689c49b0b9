package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the interactive item browser.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the items of a register interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()

			if len(sess.reg.AllItems()) == 0 {
				printInfo(cmd.ErrOrStderr(), "The register has no items")
				return nil
			}

			p := tea.NewProgram(NewItemListModel(sess.reg),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("browser: %w", err)
			}
			return nil
		},
	}
}
