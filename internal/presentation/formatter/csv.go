package formatter

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ccmeter/ccmeter/internal/metrics"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(snap *metrics.Snapshot) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := []string{
		"Group", "Name", "Input", "Output", "Cache Write", "Cache Read",
		"Total Tokens", "Calls", "Cost (USD)",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, row := range ModelRows(snap) {
		if err := w.Write(f.record("model", row)); err != nil {
			return err
		}
	}
	for _, row := range ProjectRows(snap) {
		if err := w.Write(f.record("project", row)); err != nil {
			return err
		}
	}

	return nil
}

func (f *CSVFormatter) record(group string, row Row) []string {
	return []string{
		group,
		row.Name,
		fmt.Sprintf("%d", row.Input),
		fmt.Sprintf("%d", row.Output),
		fmt.Sprintf("%d", row.CacheWrite),
		fmt.Sprintf("%d", row.CacheRead),
		fmt.Sprintf("%d", row.TotalTokens),
		fmt.Sprintf("%d", row.Calls),
		fmt.Sprintf("%.6f", row.Cost),
	}
}
