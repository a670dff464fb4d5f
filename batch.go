package pvf

import (
	"context"

	"github.com/meigma/pvf/internal/batch"
	"github.com/meigma/pvf/tree"
)

// BatchStats reports the outcome of DecodeAll.
type BatchStats = batch.ProcessStats

// TreeFunc receives one decoded entry. It may be called concurrently.
type TreeFunc func(path string, t *tree.Tree) error

// DecodeAll fetches, decodes and rebuilds the trees of paths concurrently,
// passing each to fn.
//
// Missing and corrupt entries are logged and skipped. Any other error,
// including one returned by fn, stops the batch.
func (a *Archive) DecodeAll(ctx context.Context, paths []string, fn TreeFunc, opts ...BatchOption) (BatchStats, error) {
	cfg := batchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	// Every entry needs the string table; failing here beats skipping them all.
	if _, err := a.strings(); err != nil {
		return BatchStats{}, err
	}

	items := make([]batch.Item, 0, len(paths))
	for _, p := range paths {
		item := batch.Item{Path: NormalizePath(p)}
		if entry, ok := a.idx.Lookup(item.Path); ok {
			item.Size = entry.Length
		}
		items = append(items, item)
	}

	procOpts := []batch.ProcessorOption{
		batch.WithWorkers(cfg.workers),
		batch.WithSkip(isSkippable),
	}
	if cfg.readAheadBytesSet {
		procOpts = append(procOpts, batch.WithReadAheadBytes(cfg.readAheadBytes))
	}
	if a.logger != nil {
		procOpts = append(procOpts, batch.WithProcessorLogger(a.logger))
	}
	proc := batch.NewProcessor(procOpts...)

	fetch := func(_ context.Context, path string) ([]byte, error) {
		return a.readFile("decode", path, false)
	}
	handle := func(_ context.Context, path string, data []byte) error {
		tokens, err := a.DecodeTokens(data, cfg.decode...)
		if err != nil {
			return err
		}
		return fn(path, tree.Build(tokens))
	}
	return proc.Process(ctx, items, fetch, handle)
}

// DecodePrefix runs DecodeAll over every entry under prefix.
func (a *Archive) DecodePrefix(ctx context.Context, prefix string, fn TreeFunc, opts ...BatchOption) (BatchStats, error) {
	var paths []string //nolint:prealloc // size unknown until iteration
	for entry := range a.EntriesWithPrefix(prefix) {
		paths = append(paths, entry.Path)
	}
	return a.DecodeAll(ctx, paths, fn, opts...)
}
