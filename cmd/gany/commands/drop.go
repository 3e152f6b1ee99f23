package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
)

func (c *CLI) newDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "drop <package>...",
		Aliases: []string{"remove"},
		Short:   "Remove installed packages",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cascade, _ := cmd.Flags().GetBool("cascade")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				return c.showPlan(cmd, domain.RemoveIntent(cascade, args...))
			}

			tx, err := c.app.Drop(cmd.Context(), args, cascade)
			newPrinter(cmd).transaction(tx)
			return err
		},
	}
	cmd.Flags().BoolP("cascade", "c", false, "Also remove packages that depend on the given ones")
	cmd.Flags().BoolP("dry-run", "n", false, "Print the plan without changing the system")
	return cmd
}
