package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/ui/style"
)

func (c *CLI) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the last transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tx, err := c.app.History()
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			if tx == nil {
				p.println(p.render(style.Muted, "no transaction recorded"))
				return nil
			}

			p.println(p.render(style.Header, string(tx.Intent.Kind)+" "+joinTargets(tx)))
			p.println(p.render(style.Muted, "started  "+tx.StartedAt.UTC().Format(timeLayout)))
			if !tx.FinishedAt.IsZero() {
				p.println(p.render(style.Muted, "finished "+tx.FinishedAt.UTC().Format(timeLayout)))
			}
			p.transaction(tx)
			if tx.Error != "" {
				p.println(p.render(style.Failure, tx.Error))
			}
			return nil
		},
	}
}

func joinTargets(tx *domain.Transaction) string {
	if len(tx.Intent.Targets) == 0 {
		return "all"
	}
	parts := make([]string, len(tx.Intent.Targets))
	for i, t := range tx.Intent.Targets {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
