package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/ui/style"
)

func (c *CLI) newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <source-dir>",
		Short: "Build a package archive from a source tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			pkg, err := c.app.CreatePackage(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.println(p.render(style.Success, style.Check+" "+pkg.ID()) + " " + p.render(style.Muted, pkg.Digest.Short()))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", ".", "Directory the archive and its info file are written to")
	return cmd
}
