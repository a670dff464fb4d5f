// Package batch runs fetch-and-handle work over many archive entries with
// bounded concurrency and a bounded amount of fetched-but-unhandled data.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/pvf/internal/pvftype"
	"github.com/meigma/pvf/internal/sizing"
)

// Item is one unit of work.
type Item struct {
	// Path identifies the entry.
	Path string

	// Size is the number of bytes the fetch will hold in memory. It is
	// charged against the read-ahead budget.
	Size uint32
}

// FetchFunc loads the bytes for an item.
type FetchFunc func(ctx context.Context, path string) ([]byte, error)

// HandleFunc consumes fetched bytes.
type HandleFunc func(ctx context.Context, path string, data []byte) error

// ProcessStats contains statistics from a batch processing operation.
type ProcessStats struct {
	// Processed is the number of items handled successfully.
	Processed int

	// Skipped is the number of items whose error was tolerated.
	Skipped int

	// TotalBytes is the sum of Size over processed items.
	TotalBytes uint64
}

// Processor fans items out to workers.
type Processor struct {
	workers          int
	readAheadBytes   uint64
	readAheadEnabled bool
	skip             func(error) bool
	logger           *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of concurrent workers.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithReadAheadBytes caps the total size of fetched data not yet handled.
// A value of 0 disables the byte budget.
func WithReadAheadBytes(limit uint64) ProcessorOption {
	return func(p *Processor) {
		p.readAheadBytes = limit
		p.readAheadEnabled = limit > 0
	}
}

// WithSkip sets the predicate deciding which errors skip an item instead of
// aborting the batch. By default every error aborts.
func WithSkip(fn func(error) bool) ProcessorOption {
	return func(p *Processor) {
		p.skip = fn
	}
}

// WithProcessorLogger sets the logger for batch processing operations.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a new batch processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process fetches and handles every item. Handlers may run concurrently and
// in any order. Processing stops on the first error that is not skipped, or
// when ctx is canceled.
func (p *Processor) Process(parent context.Context, items []Item, fetch FetchFunc, handle HandleFunc) (ProcessStats, error) {
	var stats ProcessStats
	if len(items) == 0 {
		return stats, nil
	}

	var budget *semaphore.Weighted
	var limit int64
	if p.readAheadEnabled {
		var err error
		limit, err = sizing.ToInt64(p.readAheadBytes, pvftype.ErrSizeOverflow)
		if err != nil {
			return stats, fmt.Errorf("batch: %w", err)
		}
		budget = semaphore.NewWeighted(limit)
	}

	workers := p.workerCount(len(items))
	p.log().Debug("batch processing", "items", len(items), "workers", workers)

	var processed, skipped atomic.Int64
	var totalBytes atomic.Uint64

	eg, ctx := errgroup.WithContext(parent)
	eg.SetLimit(workers)

	for _, item := range items {
		// An item larger than the whole budget takes all of it.
		weight := min(int64(item.Size), limit)
		if budget != nil {
			if err := budget.Acquire(ctx, weight); err != nil {
				break
			}
		}
		eg.Go(func() error {
			if budget != nil {
				defer budget.Release(weight)
			}
			err := p.processItem(ctx, item, fetch, handle)
			switch {
			case err == nil:
				processed.Add(1)
				totalBytes.Add(uint64(item.Size))
				return nil
			case p.skip != nil && p.skip(err):
				skipped.Add(1)
				p.log().Warn("batch item skipped", slog.String("path", item.Path), slog.Any("error", err))
				return nil
			default:
				return fmt.Errorf("batch: %s: %w", item.Path, err)
			}
		})
	}

	err := eg.Wait()
	stats.Processed = int(processed.Load())
	stats.Skipped = int(skipped.Load())
	stats.TotalBytes = totalBytes.Load()
	if err == nil {
		err = parent.Err()
	}
	return stats, err
}

func (p *Processor) processItem(ctx context.Context, item Item, fetch FetchFunc, handle HandleFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := fetch(ctx, item.Path)
	if err != nil {
		return err
	}
	return handle(ctx, item.Path, data)
}

// workerCount determines the number of workers to use for processing.
func (p *Processor) workerCount(items int) int {
	if p.workers < 0 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, items))
}
