package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgs, err := c.app.List()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(pkgs))
			for i := range pkgs {
				repo := pkgs[i].Repository
				if repo == "" {
					repo = "-"
				}
				rows = append(rows, []string{
					pkgs[i].Name(),
					pkgs[i].Version(),
					repo,
					pkgs[i].InstalledAt.UTC().Format(timeLayout),
				})
			}
			newPrinter(cmd).table([]string{"NAME", "VERSION", "REPOSITORY", "INSTALLED"}, rows)
			return nil
		},
	}
}
