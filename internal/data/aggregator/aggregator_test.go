package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccmeter/ccmeter/internal/core/model"
	"github.com/ccmeter/ccmeter/internal/core/pricing"
	"github.com/ccmeter/ccmeter/internal/data/parser"
	"github.com/ccmeter/ccmeter/internal/data/scanner"
	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/testing/fixtures"
)

func newTestAggregator(workers int) *Aggregator {
	p := parser.New(pricing.CostFunc(), zerolog.Nop())
	return New(p, workers, zerolog.Nop())
}

// costLine builds a line whose cost is carried explicitly, so totals in the
// test are exact dollar literals rather than pricing-table products.
func costLine(model string, cost float64) string {
	return fmt.Sprintf(`{"costUSD":%g,"message":{"model":%q,"usage":{"input_tokens":1,"output_tokens":1}}}`+"\n", cost, model)
}

func seedTwoProjects(t *testing.T) (string, []scanner.FileEntry) {
	t.Helper()
	root := t.TempDir()
	gen := fixtures.NewGenerator(root)

	conv1, err := gen.WriteRaw("projA", "conv1",
		costLine("claude-haiku-4-5", 0.01)+costLine("claude-sonnet-4-5", 0.05))
	require.NoError(t, err)
	conv2, err := gen.WriteRaw("projB", "conv2", costLine("claude-haiku-4-5", 0.001))
	require.NoError(t, err)

	return root, []scanner.FileEntry{
		{Project: "projA", Path: conv1},
		{Project: "projB", Path: conv2},
	}
}

func TestScanAggregatesAcrossProjects(t *testing.T) {
	_, entries := seedTwoProjects(t)

	agg := newTestAggregator(4)
	results, err := agg.Scan(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, results, 2)

	snap := metrics.BuildSnapshot(StatsByPath(results), time.Now())
	assert.Equal(t, model.MicroUSDFromUSD(0.061), snap.TotalCostUSD)
	assert.Equal(t, int64(3), snap.TotalMessages)
	assert.Equal(t, int64(2), snap.TotalConversations)
	assert.Equal(t, int64(0), snap.Warnings)

	require.Contains(t, snap.ByModel, "claude-haiku-4-5")
	assert.Equal(t, model.MicroUSDFromUSD(0.011), snap.ByModel["claude-haiku-4-5"].CostUSD)
	require.Contains(t, snap.ByProject, "projA")
	assert.Equal(t, model.MicroUSDFromUSD(0.06), snap.ByProject["projA"].CostUSD)
	assert.Equal(t, int64(1), snap.ByProject["projB"].Conversations)
}

func TestScanTotalsIndependentOfWorkerCount(t *testing.T) {
	root := t.TempDir()
	gen := fixtures.NewGenerator(root)

	var entries []scanner.FileEntry
	for i := 0; i < 20; i++ {
		project := fmt.Sprintf("proj%d", i%3)
		conv := fmt.Sprintf("conv%d", i)
		path, err := gen.WriteRaw(project, conv, costLine("claude-sonnet-4-5", 0.001*float64(i+1)))
		require.NoError(t, err)
		entries = append(entries, scanner.FileEntry{Project: project, Path: path})
	}

	var reference *metrics.Snapshot
	for _, workers := range []int{1, 2, 7, 32} {
		agg := newTestAggregator(workers)
		results, err := agg.Scan(context.Background(), entries)
		require.NoError(t, err)

		snap := metrics.BuildSnapshot(StatsByPath(results), time.Time{})
		if reference == nil {
			reference = snap
			continue
		}
		assert.Equal(t, reference.TotalCostUSD, snap.TotalCostUSD, "workers=%d", workers)
		assert.Equal(t, reference.TotalMessages, snap.TotalMessages, "workers=%d", workers)
		assert.Equal(t, reference.ByProject, snap.ByProject, "workers=%d", workers)
		assert.Equal(t, reference.ByModel, snap.ByModel, "workers=%d", workers)
	}
}

func TestScanComputedPricing(t *testing.T) {
	root := t.TempDir()
	gen := fixtures.NewGenerator(root)

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	path, err := gen.WriteConversation("projA", "conv1", []fixtures.Entry{
		fixtures.UserEntry(at),
		fixtures.AssistantEntry("claude-sonnet-4-5-20250929", 100, 50, at.Add(5*time.Second)),
	})
	require.NoError(t, err)

	agg := newTestAggregator(1)
	results, err := agg.Scan(context.Background(), []scanner.FileEntry{{Project: "projA", Path: path}})
	require.NoError(t, err)

	snap := metrics.BuildSnapshot(StatsByPath(results), time.Now())
	assert.Equal(t, int64(2), snap.TotalMessages)
	// Sonnet: $3/M input, $15/M output.
	assert.Equal(t, model.MicroUSD(100*3+50*15), snap.TotalCostUSD)
	require.Contains(t, snap.ByModel, "claude-sonnet-4-5", "dated model names share one bucket")
	assert.Equal(t, int64(1), snap.ByModel["claude-sonnet-4-5"].CallCount)
}

func TestScanZeroFiles(t *testing.T) {
	agg := newTestAggregator(2)
	results, err := agg.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	snap := metrics.BuildSnapshot(StatsByPath(results), time.Now())
	assert.Equal(t, model.MicroUSD(0), snap.TotalCostUSD)
	assert.Equal(t, int64(0), snap.TotalConversations)
}

func TestScanSkipsUnreadableFile(t *testing.T) {
	_, entries := seedTwoProjects(t)
	entries = append(entries, scanner.FileEntry{Project: "projC", Path: "/nonexistent/gone.jsonl"})

	agg := newTestAggregator(2)
	results, err := agg.Scan(context.Background(), entries)
	require.NoError(t, err, "one unreadable file must not abort the scan")
	assert.Len(t, results, 2)
}

func TestScanCancelledContext(t *testing.T) {
	_, entries := seedTwoProjects(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := newTestAggregator(1)
	results, err := agg.Scan(ctx, entries)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results, "a cancelled scan discards partial results")
}

func TestScanRecordsWarnings(t *testing.T) {
	root := t.TempDir()
	gen := fixtures.NewGenerator(root)
	path, err := gen.WriteRaw("projA", "conv1",
		costLine("claude-sonnet-4-5", 0.01)+"garbage line\n")
	require.NoError(t, err)

	agg := newTestAggregator(1)
	results, err := agg.Scan(context.Background(), []scanner.FileEntry{{Project: "projA", Path: path}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].Stats.Warnings)
	assert.Equal(t, int64(1), results[0].Stats.Messages)
}

func TestScanResultCarriesCursor(t *testing.T) {
	_, entries := seedTwoProjects(t)

	agg := newTestAggregator(1)
	results, err := agg.Scan(context.Background(), entries)
	require.NoError(t, err)

	for _, r := range results {
		assert.Positive(t, r.Offset)
		require.NotNil(t, r.Info)
		assert.Equal(t, r.Offset, r.Info.Size, "fully parsed file ends at its size")
		assert.NotZero(t, r.Info.Inode)
	}
}
