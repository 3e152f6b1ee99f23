package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <package[@constraint]>...",
		Aliases: []string{"install"},
		Short:   "Install packages and their dependencies",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				reqs, err := domain.ParseRequests(args)
				if err != nil {
					return err
				}
				return c.showPlan(cmd, domain.InstallIntent(reqs...))
			}

			tx, err := c.app.Install(cmd.Context(), args)
			newPrinter(cmd).transaction(tx)
			return err
		},
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Print the plan without changing the system")
	return cmd
}

func (c *CLI) showPlan(cmd *cobra.Command, intent domain.Intent) error {
	plan, err := c.app.Plan(cmd.Context(), intent)
	if err != nil {
		return err
	}
	newPrinter(cmd).plan(plan)
	return nil
}
