package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...Option) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dir
}

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	c, dir := newCache(t)
	content := bytes.Repeat([]byte("decrypted entry "), 64)
	key := digest.FromBytes(content)

	require.NoError(t, c.Put(key, content))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, content, got)

	path := filepath.Join(dir, key.Encoded()[:defaultShardPrefixLen], key.Encoded())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(content)), "content is stored compressed")
	assert.Equal(t, info.Size(), c.SizeBytes())
}

func TestCacheEmptyContent(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	key := digest.FromString("empty")

	require.NoError(t, c.Put(key, nil))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	c, dir := newCache(t, WithShardPrefixLen(0))
	key := digest.FromString("flat")
	require.NoError(t, c.Put(key, []byte("flat")))

	_, err := os.Stat(filepath.Join(dir, key.Encoded()))
	require.NoError(t, err)
}

func TestCacheAlreadyCached(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	key := digest.FromString("twice")

	require.NoError(t, c.Put(key, []byte("first")))
	size := c.SizeBytes()
	require.NoError(t, c.Put(key, []byte("second")))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("first"), got)
	assert.Equal(t, size, c.SizeBytes())
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	key := digest.FromString("gone")
	require.NoError(t, c.Put(key, []byte("gone")))

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key))
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Zero(t, c.SizeBytes())
}

func TestCacheCorruptFileIsMiss(t *testing.T) {
	t.Parallel()

	c, dir := newCache(t, WithShardPrefixLen(0))
	key := digest.FromString("corrupt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, key.Encoded()), []byte("not zstd"), 0o600))

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCacheInvalidKey(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	require.Error(t, c.Put(digest.Digest("sha256:../../etc"), []byte("x")))
	_, ok := c.Get(digest.Digest("bogus"))
	assert.False(t, ok)
}

func TestCacheMaxBytesPrunes(t *testing.T) {
	t.Parallel()

	probe, _ := newCache(t)
	content := []byte("some decrypted bytes")
	probeKey := digest.FromString("probe")
	require.NoError(t, probe.Put(probeKey, content))
	one := probe.SizeBytes()

	c, _ := newCache(t, WithMaxBytes(one*2))
	keys := []digest.Digest{digest.FromString("a"), digest.FromString("b"), digest.FromString("c")}
	for _, k := range keys {
		require.NoError(t, c.Put(k, content))
	}
	assert.LessOrEqual(t, c.SizeBytes(), c.MaxBytes())

	_, ok := c.Get(keys[2])
	assert.True(t, ok, "newest entry survives pruning")
}

func TestCacheTooLargeIsSkipped(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t, WithMaxBytes(1))
	key := digest.FromString("big")
	require.NoError(t, c.Put(key, []byte("more than one byte")))
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCacheReopenCountsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put(digest.FromString("k"), []byte("persisted")))
	size := c.SizeBytes()
	require.NoError(t, c.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, size, reopened.SizeBytes())

	got, ok := reopened.Get(digest.FromString("k"))
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)

	_, err = New(t.TempDir(), WithMaxBytes(-1))
	require.Error(t, err)

	_, err = New(t.TempDir(), WithShardPrefixLen(-1))
	require.Error(t, err)
}
