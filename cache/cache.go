// Package cache provides caching of decrypted archive entries.
//
// A cache keeps decrypted bytes keyed by a digest of the source identity
// and the entry's location. A rewritten archive gets a new source identity
// and therefore new keys.
package cache

import (
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Cache stores decrypted entry content.
//
// Archive data is immutable, so implementations never need to invalidate
// an entry for correctness. Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves content by key.
	// Returns nil, false if the content is not cached.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores content under key. Callers must not modify content afterwards.
	Put(key digest.Digest, content []byte) error

	// Delete removes content for key. Missing entries are a no-op.
	Delete(key digest.Digest) error
}

// Key derives the cache key of one entry. sourceID identifies the archive
// bytes; the remaining fields pin the entry inside it.
func Key(sourceID, path string, offset, length, checksum uint32) digest.Digest {
	var b strings.Builder
	b.WriteString(sourceID)
	b.WriteByte(0)
	b.WriteString(path)
	for _, v := range []uint32{offset, length, checksum} {
		b.WriteByte(0)
		b.WriteString(strconv.FormatUint(uint64(v), 16))
	}
	return digest.FromString(b.String())
}
