package aggregator

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccmeter/ccmeter/internal/data/parser"
	"github.com/ccmeter/ccmeter/internal/data/scanner"
	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/util"
)

// FileResult is one file's outcome from a full scan: its aggregate
// contribution plus the cursor state a tailer needs to resume from.
type FileResult struct {
	Entry  scanner.FileEntry
	Stats  *metrics.FileStats
	Offset int64
	Info   *util.FileInfo
}

// Aggregator processes many log files concurrently with a bounded worker
// pool and folds every record into per-file stats. Workers keep private
// result shards that are merged once at the end, so no lock is contended
// during the scan itself.
type Aggregator struct {
	parser  *parser.Parser
	workers int
	log     zerolog.Logger
}

// New creates an Aggregator. The worker count is over-provisioned relative
// to core count by default because the workload is I/O bound.
func New(p *parser.Parser, workers int, log zerolog.Logger) *Aggregator {
	if workers <= 0 {
		workers = 4 * runtime.NumCPU()
	}
	return &Aggregator{parser: p, workers: workers, log: log}
}

// Scan parses every file concurrently and returns per-file results. A file
// that fails to open is logged and excluded; it does not abort the scan.
// Zero files is a valid scan with an empty result. If ctx is cancelled the
// partial results are discarded and ctx.Err() is returned, so a shutdown
// mid-scan never publishes half-aggregated data.
func (a *Aggregator) Scan(ctx context.Context, files []scanner.FileEntry) ([]*FileResult, error) {
	start := time.Now()
	jobs := make(chan scanner.FileEntry)
	shards := make([][]*FileResult, a.workers)

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for entry := range jobs {
				if res := a.scanFile(entry); res != nil {
					shards[shard] = append(shards[shard], res)
				}
			}
		}(w)
	}

	feedErr := func() error {
		defer close(jobs)
		for _, entry := range files {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}()
	wg.Wait()

	if feedErr != nil {
		return nil, feedErr
	}

	results := make([]*FileResult, 0, len(files))
	for _, shard := range shards {
		results = append(results, shard...)
	}

	a.log.Debug().
		Int("files", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("full scan completed")
	return results, nil
}

func (a *Aggregator) scanFile(entry scanner.FileEntry) *FileResult {
	res, err := a.parser.ParseFile(entry.Path, entry.Project)
	if err != nil {
		a.log.Warn().Str("file", entry.Path).Err(err).Msg("excluding unreadable file from scan")
		return nil
	}

	stats := metrics.NewFileStats(entry.Project)
	stats.Warnings = res.Warnings
	for i := range res.Records {
		stats.Fold(&res.Records[i])
	}

	info, err := util.GetFileInfo(entry.Path)
	if err != nil {
		// Vanished between parse and stat; keep what was read.
		info = &util.FileInfo{Size: res.Consumed}
	}

	return &FileResult{
		Entry:  entry,
		Stats:  stats,
		Offset: res.Consumed,
		Info:   info,
	}
}

// StatsByPath re-keys scan results for snapshot building.
func StatsByPath(results []*FileResult) map[string]*metrics.FileStats {
	byPath := make(map[string]*metrics.FileStats, len(results))
	for _, r := range results {
		byPath[r.Entry.Path] = r.Stats
	}
	return byPath
}
