package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSkippable = errors.New("skippable")

func items(n int, size uint32) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{Path: fmt.Sprintf("f%02d", i), Size: size}
	}
	return out
}

func echoFetch(_ context.Context, path string) ([]byte, error) {
	return []byte(path), nil
}

func TestProcessAll(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{-1, 0, 1, 4} {
		t.Run(fmt.Sprint(workers), func(t *testing.T) {
			t.Parallel()

			var mu sync.Mutex
			seen := make(map[string]string)
			p := NewProcessor(WithWorkers(workers))
			stats, err := p.Process(context.Background(), items(10, 8), echoFetch,
				func(_ context.Context, path string, data []byte) error {
					mu.Lock()
					defer mu.Unlock()
					seen[path] = string(data)
					return nil
				})
			require.NoError(t, err)
			assert.Equal(t, 10, stats.Processed)
			assert.Zero(t, stats.Skipped)
			assert.Equal(t, uint64(80), stats.TotalBytes)
			require.Len(t, seen, 10)
			assert.Equal(t, "f03", seen["f03"])
		})
	}
}

func TestProcessEmpty(t *testing.T) {
	t.Parallel()

	stats, err := NewProcessor().Process(context.Background(), nil, echoFetch, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
}

func TestProcessSkip(t *testing.T) {
	t.Parallel()

	fetch := func(_ context.Context, path string) ([]byte, error) {
		if path == "f01" || path == "f03" {
			return nil, fmt.Errorf("read %s: %w", path, errSkippable)
		}
		return []byte(path), nil
	}
	p := NewProcessor(WithWorkers(2), WithSkip(func(err error) bool { return errors.Is(err, errSkippable) }))
	stats, err := p.Process(context.Background(), items(5, 1), fetch,
		func(context.Context, string, []byte) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)
}

func TestProcessStopsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var handled atomic.Int32
	p := NewProcessor(WithWorkers(-1))
	_, err := p.Process(context.Background(), items(5, 1), echoFetch,
		func(_ context.Context, path string, _ []byte) error {
			handled.Add(1)
			if path == "f01" {
				return boom
			}
			return nil
		})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "f01")
	assert.Less(t, handled.Load(), int32(5))
}

func TestProcessReadAheadBudget(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int64
	fetch := func(_ context.Context, path string) ([]byte, error) {
		n := inFlight.Add(10)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		return []byte(path), nil
	}
	handle := func(context.Context, string, []byte) error {
		time.Sleep(time.Millisecond)
		inFlight.Add(-10)
		return nil
	}

	p := NewProcessor(WithWorkers(8), WithReadAheadBytes(20))
	stats, err := p.Process(context.Background(), items(12, 10), fetch, handle)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Processed)
	assert.LessOrEqual(t, peak.Load(), int64(20))
}

func TestProcessOversizedItem(t *testing.T) {
	t.Parallel()

	p := NewProcessor(WithReadAheadBytes(4))
	stats, err := p.Process(context.Background(), items(3, 100), echoFetch,
		func(context.Context, string, []byte) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
}

func TestProcessCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor().Process(ctx, items(3, 1), echoFetch,
		func(context.Context, string, []byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
