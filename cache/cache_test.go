package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	k := Key("file:abc", "stringtable.bin", 16, 64, 0xDEADBEEF)
	require.NoError(t, k.Validate())
	assert.Equal(t, k, Key("file:abc", "stringtable.bin", 16, 64, 0xDEADBEEF))

	assert.NotEqual(t, k, Key("file:abd", "stringtable.bin", 16, 64, 0xDEADBEEF))
	assert.NotEqual(t, k, Key("file:abc", "stringtable.bi", 16, 64, 0xDEADBEEF))
	assert.NotEqual(t, k, Key("file:abc", "stringtable.bin", 17, 64, 0xDEADBEEF))
	assert.NotEqual(t, k, Key("file:abc", "stringtable.bin", 16, 64, 0xDEADBEEE))
}
