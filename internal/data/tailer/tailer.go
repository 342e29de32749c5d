package tailer

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ccmeter/ccmeter/internal/data/aggregator"
	"github.com/ccmeter/ccmeter/internal/data/parser"
	"github.com/ccmeter/ccmeter/internal/data/scanner"
	"github.com/ccmeter/ccmeter/internal/metrics"
	"github.com/ccmeter/ccmeter/internal/util"
)

// fileState is the cursor and running contribution of one tracked file. Its
// mutex gives per-file mutual exclusion: two passes never touch the same
// file concurrently, while different files proceed in parallel.
type fileState struct {
	mu      sync.Mutex
	project string
	offset  int64
	modTime int64
	inode   uint64
	stats   *metrics.FileStats
}

// Tailer re-parses only the newly appended bytes of tracked files, using
// remembered byte offsets. Offsets only ever advance past complete lines
// (the parser holds back trailing partial lines), so every pass resumes on a
// line boundary. A shrunken file or a changed inode means truncation or
// rotation: the file's previous contribution is discarded and it is
// re-parsed from the start.
type Tailer struct {
	parser  *parser.Parser
	workers int
	log     zerolog.Logger

	mu    sync.Mutex
	files map[string]*fileState
}

// New creates a Tailer sharing the scan parser.
func New(p *parser.Parser, workers int, log zerolog.Logger) *Tailer {
	if workers <= 0 {
		workers = 8
	}
	return &Tailer{
		parser:  p,
		workers: workers,
		log:     log,
		files:   make(map[string]*fileState),
	}
}

// Seed replaces the tracked-file table with the outcome of a full scan.
func (t *Tailer) Seed(results []*aggregator.FileResult) {
	files := make(map[string]*fileState, len(results))
	for _, r := range results {
		files[r.Entry.Path] = &fileState{
			project: r.Entry.Project,
			offset:  r.Offset,
			modTime: r.Info.ModTime,
			inode:   r.Info.Inode,
			stats:   r.Stats,
		}
	}

	t.mu.Lock()
	t.files = files
	t.mu.Unlock()
}

// Stats returns the current per-file contributions for snapshot building.
// The caller must not run it concurrently with Poll or Seed; the daemon
// serializes all three on one loop.
func (t *Tailer) Stats() map[string]*metrics.FileStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]*metrics.FileStats, len(t.files))
	for path, st := range t.files {
		out[path] = st.stats
	}
	return out
}

// Poll runs one tailing pass over the discovered files plus any tracked
// files discovery no longer reports. It returns true when any contribution
// changed, i.e. a fresh snapshot is worth publishing.
func (t *Tailer) Poll(ctx context.Context, entries []scanner.FileEntry) bool {
	var changed atomic.Bool
	seen := make(map[string]bool, len(entries))

	sem := make(chan struct{}, t.workers)
	var wg sync.WaitGroup
	for _, entry := range entries {
		seen[entry.Path] = true
		if ctx.Err() != nil {
			break
		}

		st := t.state(entry)
		wg.Add(1)
		go func(path string, st *fileState) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			updated, gone := t.pollFile(path, st)
			if updated {
				changed.Store(true)
			}
			if gone {
				t.drop(path)
				changed.Store(true)
			}
		}(entry.Path, st)
	}
	wg.Wait()

	// Tracked files discovery no longer reports: retract only those that are
	// really gone, so a transiently unreadable project directory does not
	// wipe its history.
	for _, path := range t.trackedNotIn(seen) {
		if _, err := os.Stat(path); err != nil {
			t.log.Debug().Str("file", path).Msg("tracked file disappeared, retracting")
			t.drop(path)
			changed.Store(true)
		}
	}

	return changed.Load()
}

func (t *Tailer) state(entry scanner.FileEntry) *fileState {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.files[entry.Path]
	if !ok {
		st = &fileState{project: entry.Project}
		t.files[entry.Path] = st
	}
	return st
}

func (t *Tailer) drop(path string) {
	t.mu.Lock()
	delete(t.files, path)
	t.mu.Unlock()
}

func (t *Tailer) trackedNotIn(seen map[string]bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var missing []string
	for path := range t.files {
		if !seen[path] {
			missing = append(missing, path)
		}
	}
	return missing
}

// pollFile advances one file. Reported as (updated, gone).
func (t *Tailer) pollFile(path string, st *fileState) (bool, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	info, err := util.GetFileInfo(path)
	if err != nil {
		if st.stats == nil {
			// Never successfully read; nothing to retract.
			return false, true
		}
		t.log.Debug().Str("file", path).Err(err).Msg("stat failed, retracting contribution")
		return false, true
	}

	switch {
	case st.stats == nil:
		// First observation.
		st.stats = metrics.NewFileStats(st.project)
		st.offset = 0
		if !t.parseRange(path, st, info.Size) {
			return false, true
		}
		st.modTime, st.inode = info.ModTime, info.Inode
		return true, false

	case info.Inode != st.inode || info.Size < st.offset:
		// Truncated or rotated: retract by resetting this file's stats and
		// re-parse from the start.
		t.log.Debug().Str("file", path).Msg("truncation detected, re-parsing from start")
		st.stats = metrics.NewFileStats(st.project)
		st.offset = 0
		if !t.parseRange(path, st, info.Size) {
			return false, true
		}
		st.modTime, st.inode = info.ModTime, info.Inode
		return true, false

	case info.Size > st.offset:
		before := st.offset
		if !t.parseRange(path, st, info.Size) {
			// Transient open failure; keep the cursor and retry next pass.
			return false, false
		}
		st.modTime = info.ModTime
		return st.offset > before, false

	default:
		st.modTime = info.ModTime
		return false, false
	}
}

// parseRange parses [st.offset, size) and folds the records into the file's
// stats. Returns false when the file could not be opened anymore.
func (t *Tailer) parseRange(path string, st *fileState, size int64) bool {
	file, err := os.Open(path)
	if err != nil {
		t.log.Debug().Str("file", path).Err(err).Msg("open failed during tail")
		return false
	}
	defer file.Close()

	if st.offset > 0 {
		if _, err := file.Seek(st.offset, io.SeekStart); err != nil {
			t.log.Warn().Str("file", path).Err(err).Msg("seek failed during tail")
			return false
		}
	}

	res, err := t.parser.ParseRange(
		io.LimitReader(file, size-st.offset),
		st.project, parser.ConversationID(path), true)
	if err != nil {
		t.log.Warn().Str("file", path).Err(err).Msg("read failed during tail")
		return false
	}

	for i := range res.Records {
		st.stats.Fold(&res.Records[i])
	}
	st.stats.Warnings += res.Warnings
	st.offset += res.Consumed
	return true
}
