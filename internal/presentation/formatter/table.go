package formatter

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Name", "Input", "Output", "Cache Write", "Cache Read",
			"Total Tokens", "Calls", "Cost (USD)",
		},
	}
}

func (f *TableFormatter) Format(snap *metrics.Snapshot) error {
	fmt.Println("By Model")
	f.printSection(ModelRows(snap))
	fmt.Println()
	fmt.Println("By Project")
	f.printSection(ProjectRows(snap))
	fmt.Println()
	fmt.Printf("Total: %s across %d messages in %d conversations\n",
		util.FormatCurrency(snap.TotalCostUSD.USD()),
		snap.TotalMessages, snap.TotalConversations)
	return nil
}

func (f *TableFormatter) printSection(rows []Row) {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			row.Name,
			util.FormatNumber(row.Input),
			util.FormatNumber(row.Output),
			util.FormatNumber(row.CacheWrite),
			util.FormatNumber(row.CacheRead),
			util.FormatNumber(row.TotalTokens),
			fmt.Sprintf("%d", row.Calls),
			util.FormatCurrency(row.Cost),
		})
	}

	widths := f.columnWidths(cells)
	f.printRow(f.headers, widths)
	f.printDivider(widths)
	for _, row := range cells {
		f.printRow(row, widths)
	}
}

// columnWidths sizes each column to its widest cell, truncating the name
// column when the terminal is too narrow for the full table.
func (f *TableFormatter) columnWidths(cells [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	if termWidth, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && termWidth > 0 {
		total := len(widths)*3 + 1
		for _, w := range widths {
			total += w
		}
		if excess := total - termWidth; excess > 0 && widths[0]-excess >= 8 {
			widths[0] -= excess
		}
	}

	return widths
}

func (f *TableFormatter) printRow(cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = runewidth.FillRight(runewidth.Truncate(cell, widths[i], "…"), widths[i])
	}
	fmt.Println("| " + strings.Join(parts, " | ") + " |")
}

func (f *TableFormatter) printDivider(widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	fmt.Println("|-" + strings.Join(parts, "-|-") + "-|")
}
