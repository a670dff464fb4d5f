package pvf

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pvf/tree"
)

// collector records the trees handed to a TreeFunc.
type collector struct {
	mu    sync.Mutex
	trees map[string]*tree.Tree
}

func newCollector() *collector {
	return &collector{trees: make(map[string]*tree.Tree)}
}

func (c *collector) add(path string, t *tree.Tree) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[path] = t
	return nil
}

func TestDecodePrefix(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)
	c := newCollector()

	stats, err := a.DecodePrefix(context.Background(), "Equipment/", c.add, BatchWithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, uint64(40+28+8), stats.TotalBytes)

	require.Contains(t, c.trees, "equipment/sword.equ")
	assert.Equal(t, []string{"[name]", "[attack]"}, c.trees["equipment/sword.equ"].Keys())
	assert.Equal(t, []string{"[name]"}, c.trees["equipment/upper.equ"].Keys())
	assert.Equal(t, 0, c.trees["equipment/broken.equ"].Len())
	assert.NotContains(t, c.trees, "equipment/badstr.equ")
}

func TestDecodeAllSkipsMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)
	c := newCollector()

	paths := []string{"equipment/sword.equ", "no/such.equ", "corrupt.bin"}
	stats, err := a.DecodeAll(context.Background(), paths, c.add,
		BatchWithWorkers(-1), BatchWithReadAheadBytes(16))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)
	assert.Len(t, c.trees, 1)
}

func TestDecodeAllStrict(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)

	_, err := a.DecodeAll(context.Background(), []string{"equipment/broken.equ"}, newCollector().add,
		BatchWithDecodeOptions(DecodeStrict(true)))
	require.ErrorIs(t, err, ErrReference)
}

func TestDecodeAllHandlerError(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)
	boom := errors.New("boom")

	_, err := a.DecodeAll(context.Background(), []string{"equipment/sword.equ", "equipment/upper.equ"},
		func(string, *tree.Tree) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestDecodeAllCanceled(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.DecodeAll(ctx, []string{"equipment/sword.equ"}, newCollector().add)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeAllWithoutStringTable(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, WithStringTablePath("absent.bin"))
	_, err := a.DecodeAll(context.Background(), []string{"equipment/sword.equ"}, newCollector().add)
	require.ErrorIs(t, err, ErrNotFound)
}
