package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccmeter/ccmeter/internal/core/model"
	"github.com/ccmeter/ccmeter/internal/data/aggregator"
	"github.com/ccmeter/ccmeter/internal/data/parser"
	"github.com/ccmeter/ccmeter/internal/data/scanner"
	"github.com/ccmeter/ccmeter/internal/data/tailer"
	"github.com/ccmeter/ccmeter/internal/metrics"
)

// Config holds the daemon's scalar settings.
type Config struct {
	DataDir      string
	Workers      int
	PollInterval time.Duration
}

// Daemon owns the scan/tail lifecycle: one full scan at startup, then
// periodic and event-triggered tail passes, with explicit rescans on
// request. All aggregate mutation happens on the Run loop, so full rescans
// and tail passes are never concurrent; readers only ever touch the
// immutable published snapshot.
type Daemon struct {
	cfg   Config
	log   zerolog.Logger
	store *metrics.Store

	scanner *scanner.FileScanner
	agg     *aggregator.Aggregator
	tail    *tailer.Tailer

	rescan chan chan error
}

// New wires the pipeline. The cost function is injected down into the
// parser; the daemon itself never prices anything.
func New(cfg Config, cost model.CostFunc, log zerolog.Logger) *Daemon {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	p := parser.New(cost, log)
	return &Daemon{
		cfg:     cfg,
		log:     log,
		store:   metrics.NewStore(),
		scanner: scanner.NewFileScanner(cfg.DataDir, log),
		agg:     aggregator.New(p, cfg.Workers, log),
		tail:    tailer.New(p, cfg.Workers, log),
		rescan:  make(chan chan error, 8),
	}
}

// Snapshot returns the latest published snapshot. Non-blocking.
func (d *Daemon) Snapshot() *metrics.Snapshot {
	return d.store.Snapshot()
}

// Health returns the latest scan health.
func (d *Daemon) Health() metrics.Health {
	return d.store.Health()
}

// Rescan requests a full rescan from the Run loop and waits for it to
// finish. Safe to call from any goroutine.
func (d *Daemon) Rescan(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case d.rescan <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run performs the startup scan and then serves tail passes and rescan
// requests until ctx is cancelled. A missing or unreadable log root is the
// one fatal error: there is nothing meaningful to aggregate.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.fullScan(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("initial scan of %s: %w", d.cfg.DataDir, err)
	}

	w, err := newWatcher(d.cfg.DataDir, d.log)
	if err != nil {
		// Degrade to pure polling.
		d.log.Warn().Err(err).Msg("file watching unavailable, relying on poll interval")
	} else {
		defer w.Close()
	}
	var watchChanged <-chan struct{}
	if w != nil {
		watchChanged = w.Changed()
	}

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.log.Info().
		Str("dir", d.cfg.DataDir).
		Dur("interval", d.cfg.PollInterval).
		Msg("daemon running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			d.tailPass(ctx)

		case <-watchChanged:
			d.tailPass(ctx)

		case reply := <-d.rescan:
			reply <- d.fullScan(ctx)
		}
	}
}

// fullScan rebuilds everything from scratch and atomically publishes the
// result. Cancellation discards the partial aggregate without publishing.
func (d *Daemon) fullScan(ctx context.Context) error {
	files, err := d.scanner.Scan()
	if err != nil {
		d.store.MarkFailed(err, time.Now())
		return err
	}

	results, err := d.agg.Scan(ctx, files)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.store.MarkFailed(err, time.Now())
		}
		return err
	}

	d.tail.Seed(results)
	d.store.Publish(metrics.BuildSnapshot(aggregator.StatsByPath(results), time.Now()))
	return nil
}

// tailPass advances cursors over appended bytes and republishes only when
// some contribution actually changed.
func (d *Daemon) tailPass(ctx context.Context) {
	files, err := d.scanner.Scan()
	if err != nil {
		d.log.Warn().Err(err).Msg("discovery failed during tail pass")
		d.store.MarkFailed(err, time.Now())
		return
	}

	if d.tail.Poll(ctx, files) {
		d.store.Publish(metrics.BuildSnapshot(d.tail.Stats(), time.Now()))
	}
}
