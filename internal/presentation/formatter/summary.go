package formatter

import (
	"fmt"

	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/util"
)

// SummaryFormatter prints the totals plus the most expensive models and
// projects.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(snap *metrics.Snapshot) error {
	fmt.Println("Usage Summary")
	fmt.Println("=============")
	fmt.Printf("Total cost:     %s\n", util.FormatCurrency(snap.TotalCostUSD.USD()))
	fmt.Printf("Total tokens:   %s\n", util.FormatNumber(snap.TotalTokens))
	fmt.Printf("Messages:       %d\n", snap.TotalMessages)
	fmt.Printf("Conversations:  %d\n", snap.TotalConversations)
	if snap.Warnings > 0 {
		fmt.Printf("Parse warnings: %d\n", snap.Warnings)
	}

	if rows := ModelRows(snap); len(rows) > 0 {
		fmt.Println()
		fmt.Println("By model:")
		for _, row := range rows {
			fmt.Printf("  %-28s %10s  %8s tokens  %d calls\n",
				row.Name, util.FormatCurrency(row.Cost),
				util.FormatNumber(row.TotalTokens), row.Calls)
		}
	}

	if rows := ProjectRows(snap); len(rows) > 0 {
		fmt.Println()
		fmt.Println("Top projects:")
		limit := 10
		if len(rows) < limit {
			limit = len(rows)
		}
		for _, row := range rows[:limit] {
			fmt.Printf("  %-28s %10s  %d conversations\n",
				row.Name, util.FormatCurrency(row.Cost), row.Conversations)
		}
	}

	return nil
}
