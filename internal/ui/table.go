// Package ui provides the interactive report browser used by
// `modprof report --ui`.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"modprof/internal/parse"
	"modprof/internal/report"
)

const (
	minNameWidth = 16
	maxNameWidth = 48
	maxRows      = 20
)

var (
	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type aggregateModel struct {
	title string
	total float64
	table table.Model
}

// NewAggregateModel returns a Bubble Tea model browsing the per-operation
// aggregate view of one parsed trace.
func NewAggregateModel(title string, rep *parse.Report) tea.Model {
	aggRows := report.AggregateRows(rep)

	nameWidth := minNameWidth
	for _, row := range aggRows {
		if w := runewidth.StringWidth(row.Name); w > nameWidth {
			nameWidth = w
		}
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}

	columns := []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "TOTAL TIME", Width: 14},
		{Title: "PERCENT", Width: 8},
	}
	rows := make([]table.Row, 0, len(aggRows))
	for _, row := range aggRows {
		rows = append(rows, table.Row{
			runewidth.Truncate(row.Name, nameWidth, "…"),
			fmt.Sprintf("%.3f", row.Total),
			fmt.Sprintf("%.2f%%", row.Percent),
		})
	}

	height := len(rows) + 1
	if height > maxRows {
		height = maxRows
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &aggregateModel{title: title, total: rep.IterationTotal, table: t}
}

func (m *aggregateModel) Init() tea.Cmd { return nil }

func (m *aggregateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *aggregateModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("%s · iteration total %.3f", m.title, m.total))
	return header + "\n" +
		frameStyle.Render(m.table.View()) + "\n" +
		helpStyle.Render("↑/↓ scroll · q quit") + "\n"
}
