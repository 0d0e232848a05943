package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a bordered table with a header row.
type Table struct {
	Headers []string
	Rows    [][]string
	Width   int
	// Empty is shown instead of the table when there are no rows.
	Empty string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Width: GetTerminalWidth()}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// SetWidth sets the terminal width for responsive rendering
func (t *Table) SetWidth(width int) *Table {
	t.Width = width
	return t
}

// Render returns the styled table as a string
func (t *Table) Render() string {
	if len(t.Rows) == 0 && t.Empty != "" {
		return TroubleshootingItemStyle.Render(t.Empty)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		Width(max(t.Width, MinTerminalWidth)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Render()
}

// String implements fmt.Stringer
func (t *Table) String() string {
	return t.Render()
}
