package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
)

func (c *CLI) newUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade [package...]",
		Short: "Upgrade packages to the highest available version",
		Long:  "Upgrade the given packages, or every installed package when none is given.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				return c.showPlan(cmd, domain.UpgradeIntent(args...))
			}

			tx, err := c.app.Upgrade(cmd.Context(), args)
			newPrinter(cmd).transaction(tx)
			return err
		},
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Print the plan without changing the system")
	return cmd
}
