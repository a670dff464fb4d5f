package file

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	t.Parallel()

	entry := Entry{Path: "etc/a.str", Length: 8, RawLength: 6}
	f := NewFile(&entry, "a.str", []byte("k>v\n\x00\x00\x00\x00"))
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "a.str", info.Name())
	assert.Equal(t, int64(8), info.Size())
	assert.False(t, info.IsDir())
	assert.Equal(t, &entry, info.Sys())

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, got, 8)

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "k>v", string(buf))
}

func TestDirEntry(t *testing.T) {
	t.Parallel()

	de := NewDirEntry(NewDirInfo("equipment"))
	assert.True(t, de.IsDir())
	assert.Equal(t, fs.ModeDir, de.Type())
	assert.Equal(t, "equipment", de.Name())

	info, err := de.Info()
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
