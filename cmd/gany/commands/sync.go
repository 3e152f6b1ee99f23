package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/ui/style"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the package listings of every repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Sync(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			for _, name := range report.Updated {
				p.println(p.render(style.Success, style.Check+" "+name))
			}
			for _, name := range report.FailedNames() {
				p.println(p.render(style.Failure, style.Cross+" "+name+": "+report.Failed[name].Error()))
			}
			return nil
		},
	}
}
