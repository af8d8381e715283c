package ctl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
	alertStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// table is a bordered text table. The first column is left aligned, the
// rest right aligned.
type table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func renderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(50).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

func renderTable(t table) string {
	numCols := len(t.Headers)
	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		return dimStyle.Render(b.String()) + "\n"
	}
	cells := func(row []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				cell = cell + pad
			} else {
				cell = pad + cell
			}
			b.WriteString(style.Render(" " + cell + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(line("╭", "┬", "╮"))
	b.WriteString(cells(t.Headers, headerStyle))
	b.WriteString(line("├", "┼", "┤"))
	for _, row := range t.Rows {
		b.WriteString(cells(row, valueStyle))
	}
	b.WriteString(line("╰", "┴", "╯"))
	return b.String()
}

// formatAmount renders v with thousands separators and two decimals.
func formatAmount(symbol string, v float64) string {
	return fmt.Sprintf("%s%s", symbol, humanize.FormatFloat("#,###.##", v))
}
