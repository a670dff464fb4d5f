package pvf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/pvf/cache"
	"github.com/meigma/pvf/internal/cipher"
	"github.com/meigma/pvf/internal/sizing"
)

// content returns the decrypted bytes of entry. Without a cache every call
// reads the archive and the result is always owned by the caller. With a
// cache, the cached slice is shared unless owned is set.
func (a *Archive) content(entry *Entry, owned bool) ([]byte, error) {
	if a.cache == nil {
		return a.decrypt(entry)
	}

	key := a.cacheKey(entry)
	if data, ok := a.cache.Get(key); ok {
		a.log().Debug("entry cache hit", slog.String("path", entry.Path))
		return share(data, owned), nil
	}
	a.log().Debug("entry cache miss", slog.String("path", entry.Path))

	result, err, _ := a.readGroup.Do(key.String(), func() (any, error) {
		// Double-check cache
		if data, ok := a.cache.Get(key); ok {
			return data, nil
		}
		data, err := a.decrypt(entry)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Put(key, data); err != nil {
			// Caching is opportunistic.
			a.log().Debug("entry cache put failed", slog.String("path", entry.Path), slog.Any("error", err))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return share(result.([]byte), owned), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// decrypt reads the entry's range and decrypts it with the entry's key.
func (a *Archive) decrypt(entry *Entry) ([]byte, error) {
	if a.maxEntrySize > 0 && uint64(entry.Length) > a.maxEntrySize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d: %w",
			ErrCorruptEntry, entry.Length, a.maxEntrySize, ErrSizeOverflow)
	}
	start, ok := sizing.AddUint64(uint64(a.hdr.ContentBase()), uint64(entry.Offset))
	if !ok || !sizing.Within(start, uint64(entry.Length), a.source.Size()) {
		return nil, fmt.Errorf("%w: range [%d,+%d) exceeds archive size %d",
			ErrCorruptEntry, start, entry.Length, a.source.Size())
	}
	off, err := sizing.ToInt64(start, ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	buf := make([]byte, entry.Length)
	n, err := a.source.ReadAt(buf, off)
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: read %d of %d bytes: %w", ErrCorruptEntry, n, len(buf), err)
	}
	cipher.DecryptInPlace(buf, entry.Checksum)
	return buf, nil
}

func (a *Archive) cacheKey(entry *Entry) digest.Digest {
	return cache.Key(a.source.SourceID(), entry.Path, entry.Offset, entry.Length, entry.Checksum)
}

func share(data []byte, owned bool) []byte {
	if owned {
		return bytes.Clone(data)
	}
	return data
}
