package formatter

import (
	"fmt"
	"sort"

	"github.com/ccmeter/ccmeter/internal/metrics"
)

// Formatter renders one snapshot to stdout.
type Formatter interface {
	Format(snap *metrics.Snapshot) error
}

// New returns the formatter for an output format name.
func New(format string) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Row is one rendered line of a model or project section.
type Row struct {
	Name          string
	Input         int64
	Output        int64
	CacheWrite    int64
	CacheRead     int64
	TotalTokens   int64
	Calls         int64
	Conversations int64
	Cost          float64
}

func usageRow(name string, u *metrics.Usage) Row {
	return Row{
		Name:        name,
		Input:       u.Input,
		Output:      u.Output,
		CacheWrite:  u.CacheWrite,
		CacheRead:   u.CacheRead,
		TotalTokens: u.TotalTokens(),
		Calls:       u.CallCount,
		Cost:        u.CostUSD.USD(),
	}
}

// ModelRows returns per-model rows sorted by descending cost.
func ModelRows(snap *metrics.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.ByModel))
	for name, b := range snap.ByModel {
		rows = append(rows, usageRow(name, &b.Usage))
	}
	sortRows(rows)
	return rows
}

// ProjectRows returns per-project rows sorted by descending cost.
func ProjectRows(snap *metrics.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.ByProject))
	for name, b := range snap.ByProject {
		row := usageRow(name, &b.Usage)
		row.Conversations = b.Conversations
		rows = append(rows, row)
	}
	sortRows(rows)
	return rows
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Cost != rows[j].Cost {
			return rows[i].Cost > rows[j].Cost
		}
		return rows[i].Name < rows[j].Name
	})
}
