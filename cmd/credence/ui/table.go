package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SimpleTable is a simple table component for rendering static data.
type SimpleTable struct {
	Title   string
	Headers []string
	Rows    [][]string

	// CellStyle optionally overrides the style of individual cells.
	// Returning nil keeps the default row style.
	CellStyle func(row, col int) *lipgloss.Style
}

// NewSimpleTable creates a new SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles.
func (t *SimpleTable) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	// Column widths from headers and cells.
	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}

	// Pad widths because lipgloss Width includes padding.
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sepStyle := styles.Muted

	for i, h := range t.Headers {
		if i < len(colWidths) {
			sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
			if i < len(t.Headers)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
	}
	sb.WriteString("\n")

	totalWidth := 0
	for _, w := range colWidths {
		totalWidth += w
	}
	totalWidth += len(t.Headers) - 1

	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for ri, row := range t.Rows {
		for ci, cell := range row {
			if ci >= len(colWidths) {
				continue
			}
			style := rowStyle
			if t.CellStyle != nil {
				if override := t.CellStyle(ri, ci); override != nil {
					style = override.Padding(0, 1)
				}
			}
			sb.WriteString(style.Width(colWidths[ci]).Render(cell))
			if ci < len(row)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
