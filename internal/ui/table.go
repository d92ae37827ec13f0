package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders assignment listings as a fixed-width terminal table. Cells
// may arrive pre-styled (the status column does), so widths are measured on
// the printable text rather than the raw bytes, and titles with non-ASCII
// characters count runes, not bytes.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // widest a column may grow (0 = unbounded)
}

// ColumnWidths sizes each column to its widest header or cell, capped at
// MaxWidth.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			if widths[i] > t.MaxWidth {
				widths[i] = t.MaxWidth
			}
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)
	dimStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	var headerCells []string
	for i, h := range t.Headers {
		headerCells = append(headerCells, headerStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString(" " + strings.Join(headerCells, "  ") + "\n")

	var sepParts []string
	for _, w := range widths {
		sepParts = append(sepParts, dimStyle.Render(strings.Repeat("─", w)))
	}
	sb.WriteString(" " + strings.Join(sepParts, "──") + "\n")

	for _, row := range t.Rows {
		var cells []string
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cells = append(cells, cellStyle.Render(padRight(truncateCell(val, widths[i]), widths[i])))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}

	return sb.String()
}

// truncateCell cuts an over-long cell to width runes with a trailing
// ellipsis. Cells that already carry escape sequences are left alone: only
// the short status column is pre-styled, and slicing through a sequence
// would corrupt it.
func truncateCell(s string, width int) string {
	if lipgloss.Width(s) <= width || strings.ContainsRune(s, '\x1b') {
		return s
	}
	runes := []rune(s)
	if width < 2 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// padRight pads a cell to the given printable width.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// TruncateID shortens a record ID for display: the first group of a UUID,
// or the first 8 characters of anything else.
func TruncateID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && i <= 8 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
