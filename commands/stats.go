package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ccmeter/ccmeter/internal/core/pricing"
	"github.com/ccmeter/ccmeter/internal/data/aggregator"
	"github.com/ccmeter/ccmeter/internal/data/parser"
	"github.com/ccmeter/ccmeter/internal/data/scanner"
	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/presentation/formatter"
)

var (
	statsOutput  string
	statsWorkers int

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Aggregate usage logs once and print a report",
		Long: `Scans every JSONL conversation log under the project directory,
aggregates token usage and cost per model and per project, and prints the
result.

Examples:
  ccmeter stats                       # table report over the default directory
  ccmeter stats --output json         # machine-readable snapshot
  ccmeter stats --output summary      # totals plus top models/projects`,
		RunE: runStats,
	}
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	statsCmd.Flags().IntVar(&statsWorkers, "workers", 0,
		"Parse worker count (0 = 4x CPU count)")

	viper.BindPFlag("workers", statsCmd.Flags().Lookup("workers"))
}

func runStats(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	out, err := formatter.New(statsOutput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := resolvedDataDir()
	files, err := scanner.NewFileScanner(dir, logger).Scan()
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	p := parser.New(pricing.CostFunc(), logger)
	results, err := aggregator.New(p, viper.GetInt("workers"), logger).Scan(ctx, files)
	if err != nil {
		return err
	}

	snap := metrics.BuildSnapshot(aggregator.StatsByPath(results), time.Now())
	return out.Format(snap)
}
