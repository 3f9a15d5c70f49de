package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders tabular data like the catalog or the cart contents. Columns
// size themselves to the widest cell.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string

	// RightAlign marks columns rendered flush right, for prices and counts.
	RightAlign map[int]bool

	// Cursor highlights a row; negative means no selection.
	Cursor int
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:      title,
		Headers:    headers,
		RightAlign: make(map[int]bool),
		Cursor:     -1,
	}
}

// AddRow appends a row. Short rows are padded, long rows truncated to the
// header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// AlignRight marks a column as right-aligned.
func (t *Table) AlignRight(col int) *Table {
	t.RightAlign[col] = true
	return t
}

// View renders the table as a string.
func (t *Table) View(styles Styles) string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString(styles.Title.Render(t.Title))
		b.WriteString("\n")
	}

	headerStyle := styles.Bold.Padding(0, 1)
	var header strings.Builder
	for i, h := range t.Headers {
		header.WriteString(headerStyle.Render(t.pad(h, widths[i], i)))
	}
	b.WriteString(header.String())
	b.WriteString("\n")

	sep := make([]string, len(t.Headers))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w+2)
	}
	b.WriteString(styles.Divider.Render(strings.Join(sep, "")))
	b.WriteString("\n")

	cellStyle := styles.Body.Padding(0, 1)
	selectedStyle := styles.Selected.Padding(0, 1)
	for r, row := range t.Rows {
		style := cellStyle
		if r == t.Cursor {
			style = selectedStyle
		}
		var line strings.Builder
		for i, cell := range row {
			line.WriteString(style.Render(t.pad(cell, widths[i], i)))
		}
		b.WriteString(line.String())
		b.WriteString("\n")
	}

	return b.String()
}

func (t *Table) pad(cell string, width, col int) string {
	gap := width - lipgloss.Width(cell)
	if gap <= 0 {
		return cell
	}
	if t.RightAlign[col] {
		return strings.Repeat(" ", gap) + cell
	}
	return cell + strings.Repeat(" ", gap)
}

// Money formats a price the way the storefront displays it.
func Money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
