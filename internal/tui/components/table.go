package components

import (
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// RenderTable draws rows under headers once, sized to fit its content.
// The table is never focused, so no row is highlighted.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	columns := make([]table.Column, len(headers))
	total := 0
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
		total += widths[i] + styles.TableCellStyle.GetHorizontalFrameSize()
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		cells := make(table.Row, len(headers))
		copy(cells, row)
		tableRows[i] = cells
	}

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Cell = styles.TableCellStyle
	s.Selected = lipgloss.NewStyle()

	headerHeight := 1 + styles.TableHeaderStyle.GetVerticalFrameSize()
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+headerHeight),
		table.WithWidth(total),
		table.WithStyles(s),
	)

	return t.View()
}
