package output

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableStyle defines the style for table output.
type TableStyle struct {
	// Border is the border style.
	Border lipgloss.Border

	// BorderColor is the color for borders.
	BorderColor lipgloss.Color

	// HeaderStyle is the style for header cells.
	HeaderStyle lipgloss.Style

	// CellStyle is the style for regular cells.
	CellStyle lipgloss.Style
}

// DefaultTableStyle returns the default table style.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Border:      lipgloss.NormalBorder(),
		BorderColor: ColorDimGray,
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		CellStyle:   lipgloss.NewStyle(),
	}
}

// Table represents a styled table.
type Table struct {
	headers []string
	rows    [][]string
	style   TableStyle
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		style:   DefaultTableStyle(),
	}
}

// Row adds a row to the table.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// SetStyle sets the table style.
func (t *Table) SetStyle(style TableStyle) *Table {
	t.style = style
	return t
}

// String renders the table as a string.
func (t *Table) String() string {
	tbl := table.New().
		Border(t.style.Border).
		BorderStyle(lipgloss.NewStyle().Foreground(t.style.BorderColor)).
		Headers(t.headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.style.HeaderStyle
			}
			return t.style.CellStyle
		})

	for _, row := range t.rows {
		tbl.Row(row...)
	}

	return tbl.String()
}

// TestRow is one row of the device test summary table.
type TestRow struct {
	Suite    string
	Name     string
	Outcome  string
	Duration time.Duration
	Message  string
}

// RenderTestTable renders the per-test result table for a harness run.
func RenderTestTable(rows []TestRow) string {
	t := NewTable("SUITE", "TEST", "OUTCOME", "TIME", "MESSAGE")

	for _, r := range rows {
		t.Row(r.Suite, r.Name, OutcomeStyle(r.Outcome).Render(r.Outcome),
			r.Duration.Round(time.Millisecond).String(), r.Message)
	}

	return t.String()
}

// RenderTestSummaryLine renders the one-line run summary.
func RenderTestSummaryLine(passed, failed, ignored int, elapsed time.Duration) string {
	return StyleSummary.Render(fmt.Sprintf("%d passed, %d failed, %d ignored (%s)",
		passed, failed, ignored, elapsed.Round(time.Millisecond)))
}
