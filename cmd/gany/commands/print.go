package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/ui/output"
	"go.trai.ch/gany/internal/ui/style"
)

// timeLayout renders timestamps in listings.
const timeLayout = "2006-01-02 15:04:05"

type printer struct {
	w io.Writer
	r *lipgloss.Renderer
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	return &printer{w: w, r: output.Renderer(w)}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	return p.r.NewStyle().Inherit(s).Render(text)
}

func (p *printer) println(text string) {
	_, _ = fmt.Fprintln(p.w, text)
}

// table prints rows in aligned columns under a styled header row.
func (p *printer) table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	format := func(row []string) string {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	p.println(p.render(style.Header, format(header)))
	for _, row := range rows {
		p.println(format(row))
	}
}

// transaction prints what a transaction did, one action per line.
func (p *printer) transaction(tx *domain.Transaction) {
	if tx == nil {
		return
	}
	if tx.Plan.Empty() && tx.State == domain.TxCommitted {
		p.println(p.render(style.Muted, "nothing to do"))
		return
	}

	for _, a := range tx.Completed {
		p.println(p.render(style.Success, style.Check+" "+a.String()))
	}
	for _, a := range tx.Failed {
		p.println(p.render(style.Failure, style.Cross+" "+a.String()))
	}
	if tx.State == domain.TxRolledBack || tx.State == domain.TxFailed {
		for _, a := range tx.Plan.Actions {
			p.println(p.render(style.Muted, style.Circle+" "+a.String()))
		}
	}
	p.println(p.render(style.Muted, "transaction "+tx.ID+" "+string(tx.State)))
}

// plan prints the actions of a dry run.
func (p *printer) plan(plan *domain.Plan) {
	if plan.Empty() {
		p.println(p.render(style.Muted, "nothing to do"))
		return
	}
	for _, a := range plan.Actions {
		p.println(style.Arrow + " " + a.String())
	}
}
