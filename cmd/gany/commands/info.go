package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/ui/style"
)

func (c *CLI) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <package>",
		Short: "Show what is known about a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.app.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := newPrinter(cmd)
			p.println(p.render(style.Header, info.Name))

			var pkg *domain.Package
			switch {
			case info.Installed != nil:
				pkg = &info.Installed.Package
			case len(info.Available) > 0:
				pkg = &info.Available[0]
			}

			rows := [][]string{}
			if pkg.Description != "" {
				rows = append(rows, []string{"description", pkg.Description})
			}
			if info.Installed != nil {
				rows = append(rows, []string{"installed", info.Installed.Version() + " (" + info.Installed.InstalledAt.UTC().Format(timeLayout) + ")"})
			} else {
				rows = append(rows, []string{"installed", "no"})
			}
			if len(info.Available) > 0 {
				versions := make([]string, len(info.Available))
				for i := range info.Available {
					versions[i] = info.Available[i].Version + "@" + info.Available[i].Repository
				}
				rows = append(rows, []string{"available", strings.Join(versions, ", ")})
			}
			rows = append(rows, []string{"arch", pkg.Arch})
			if len(pkg.Dependencies) > 0 {
				rows = append(rows, []string{"depends", joinRequirements(pkg.Dependencies)})
			}
			if len(pkg.Conflicts) > 0 {
				rows = append(rows, []string{"conflicts", joinRequirements(pkg.Conflicts)})
			}

			for _, row := range rows {
				p.println(p.render(style.Muted, padRight(row[0], len("description"))) + "  " + row[1])
			}
			return nil
		},
	}
}

func joinRequirements(reqs []domain.Requirement) string {
	parts := make([]string, len(reqs))
	for i, r := range reqs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
