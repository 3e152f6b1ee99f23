package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/ui/style"
	"go.trai.ch/zerr"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [package...]",
		Short: "Check installed files against the database",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := c.app.Verify(args)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			if len(issues) == 0 {
				p.println(p.render(style.Success, style.Check+" all files intact"))
				return nil
			}

			rows := make([][]string, len(issues))
			for i, issue := range issues {
				rows[i] = []string{issue.Package, issue.Path, issue.Problem}
			}
			p.table([]string{"PACKAGE", "PATH", "PROBLEM"}, rows)
			return zerr.With(zerr.Wrap(domain.ErrVerificationFailed, "installed files changed"), "issues", len(issues))
		},
	}
}
