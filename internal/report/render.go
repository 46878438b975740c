// Package report renders the three views of a parsed trace: the ordered
// leaf-op/module table, the per-operation aggregate with percentages, and the
// iteration grand total.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"modprof/internal/parse"
)

// maxNameWidth caps the operation/module columns; longer names are truncated
// with an ellipsis so tables stay readable on one screen.
const maxNameWidth = 48

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// AggregateRow is one line of the per-operation summary view, ordered by
// descending total time.
type AggregateRow struct {
	Name    string
	Total   float64
	Percent float64 // of the iteration total; 0 when the total is 0
}

// AggregateRows flattens a report's totals into a deterministic order:
// descending by time, ties broken by name.
func AggregateRows(rep *parse.Report) []AggregateRow {
	rows := make([]AggregateRow, 0, len(rep.Totals))
	for name, total := range rep.Totals {
		row := AggregateRow{Name: name, Total: total}
		if rep.IterationTotal > 0 {
			row.Percent = total / rep.IterationTotal * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// Renderer formats report tables for one output stream.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer returns a Renderer with locale-aware number formatting.
func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.English)}
}

func (r *Renderer) time(v float64) string {
	return r.printer.Sprintf("%.3f", v)
}

func clip(s string) string {
	return runewidth.Truncate(s, maxNameWidth, "…")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(int, int) lipgloss.Style { return cellStyle }).
		Headers(headers...)
}

// Render prints all three views to w in the order the boundary requires:
// ordered rows, aggregate by operation, iteration total.
func (r *Renderer) Render(w io.Writer, rep *parse.Report) error {
	for _, render := range []func(io.Writer, *parse.Report) error{
		r.renderRows,
		r.renderAggregate,
		r.renderTotal,
	} {
		if err := render(w, rep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderRows(w io.Writer, rep *parse.Report) error {
	t := newTable("Module", "Name", "TOTAL TIME", "MODULE TOTAL TIME")
	for _, row := range rep.Rows {
		switch row.Kind {
		case parse.RowOp:
			t.Row(clip(row.Module), clip(row.Name), r.time(row.TotalTime), "")
		case parse.RowModuleSummary:
			t.Row("", "", "", r.time(row.ModuleTotalTime))
		}
	}
	_, err := fmt.Fprintln(w, t)
	return err
}

func (r *Renderer) renderAggregate(w io.Writer, rep *parse.Report) error {
	t := newTable("Name", "TOTAL TIME", "PERCENT")
	for _, row := range AggregateRows(rep) {
		t.Row(clip(row.Name), r.time(row.Total), fmt.Sprintf("%.2f%%", row.Percent))
	}
	_, err := fmt.Fprintln(w, t)
	return err
}

func (r *Renderer) renderTotal(w io.Writer, rep *parse.Report) error {
	t := newTable("TOTAL TIME")
	t.Row(r.time(rep.IterationTotal))
	_, err := fmt.Fprintln(w, t)
	return err
}
