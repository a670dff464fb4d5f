// Package index decodes the archive directory and serves path lookups.
//
// The decrypted directory is materialized as a FlatBuffers index sorted by
// path. Lookups binary search the entry vector and prefix scans walk a
// contiguous run of it, which is what the fs.FS directory listing needs.
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/pvf/internal/cipher"
	"github.com/meigma/pvf/internal/fb"
	"github.com/meigma/pvf/internal/pvftype"
)

// Version is written into every index built by this package.
const Version = 1

// Entry is an alias for the shared entry type.
type Entry = pvftype.Entry

// Index provides access to archive entries.
//
// Index is backed by FlatBuffers and provides O(log n) lookups by path.
// It is immutable and safe for concurrent use.
type Index struct {
	data []byte
	root *fb.Index
}

// Decode decrypts a raw directory blob and decodes exactly count entries.
//
// Paths are decoded as UTF-8 with invalid bytes replaced and lowercased.
// Backslashes are kept as they are; a leading slash is dropped. When a path
// occurs more than once the later entry wins and keeps the earlier position.
func Decode(blob []byte, checksum, count uint32) (*Index, error) {
	plain := cipher.Decrypt(blob, checksum)
	entries, err := parseEntries(plain, count)
	if err != nil {
		return nil, err
	}
	return Load(Build(entries))
}

// parseEntries walks the decrypted directory with a bounds-checked cursor.
func parseEntries(plain []byte, count uint32) ([]Entry, error) {
	c := cursor{buf: plain}
	pathDecoder := unicode.UTF8.NewDecoder()

	// count comes from the header; cap the preallocation by what can fit.
	entries := make([]Entry, 0, min(int(count), len(plain)/24))
	seen := make(map[string]int, cap(entries))
	for i := range count {
		tag, ok1 := c.uint32()
		pathLen, ok2 := c.uint32()
		if !ok1 || !ok2 {
			return nil, truncated(i)
		}
		raw, ok := c.bytes(pathLen)
		if !ok {
			return nil, truncated(i)
		}
		rawLength, ok1 := c.uint32()
		checksum, ok2 := c.uint32()
		offset, ok3 := c.uint32()
		if !ok1 || !ok2 || !ok3 {
			return nil, truncated(i)
		}

		decoded, err := pathDecoder.Bytes(raw)
		if err != nil {
			decoded = raw
		}
		path := strings.TrimLeft(strings.ToLower(string(decoded)), "/")

		entry := Entry{
			Path:      path,
			Tag:       tag,
			RawLength: rawLength,
			Length:    pvftype.RoundLength(rawLength),
			Checksum:  checksum,
			Offset:    offset,
		}
		if at, dup := seen[path]; dup {
			entry.Ordinal = entries[at].Ordinal
			entries[at] = entry
			continue
		}
		entry.Ordinal = uint32(len(entries))
		seen[path] = len(entries)
		entries = append(entries, entry)
	}
	return entries, nil
}

func truncated(i uint32) error {
	return fmt.Errorf("%w: directory entry %d truncated", pvftype.ErrFormat, i)
}

// Build encodes entries into a FlatBuffers index. entries is not modified.
func Build(entries []Entry) []byte {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.Path, b.Path)
	})

	builder := flatbuffers.NewBuilder(64 * (len(sorted) + 1))

	offsets := make([]flatbuffers.UOffsetT, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		pathOffset := builder.CreateString(e.Path)

		fb.EntryStart(builder)
		fb.EntryAddPath(builder, pathOffset)
		fb.EntryAddTag(builder, e.Tag)
		fb.EntryAddRawLength(builder, e.RawLength)
		fb.EntryAddLength(builder, e.Length)
		fb.EntryAddChecksum(builder, e.Checksum)
		fb.EntryAddOffset(builder, e.Offset)
		fb.EntryAddOrdinal(builder, e.Ordinal)
		offsets[i] = fb.EntryEnd(builder)
	}

	fb.IndexStartEntriesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	vec := builder.EndVector(len(offsets))

	fb.IndexStart(builder)
	fb.IndexAddVersion(builder, Version)
	fb.IndexAddEntries(builder, vec)
	builder.Finish(fb.IndexEnd(builder))
	return builder.FinishedBytes()
}

// Load parses a FlatBuffers-encoded index.
//
// The provided data is retained by the index; callers must not modify it
// after calling Load.
func Load(data []byte) (idx *Index, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx = nil
			err = fmt.Errorf("%w: failed to parse index: %v", pvftype.ErrFormat, r)
		}
	}()
	if len(data) == 0 {
		return nil, errors.New("pvf: empty index data")
	}

	root := fb.GetRootAsIndex(data, 0)
	if root == nil {
		return nil, fmt.Errorf("%w: failed to parse index", pvftype.ErrFormat)
	}
	if v := root.Version(); v != Version {
		return nil, fmt.Errorf("%w: unsupported index version %d", pvftype.ErrFormat, v)
	}
	return &Index{data: data, root: root}, nil
}

// Data returns the encoded index. The slice must be treated as immutable.
func (idx *Index) Data() []byte {
	return idx.data
}

// Len returns the number of entries in the index.
func (idx *Index) Len() int {
	return idx.root.EntriesLength()
}

// Lookup returns the entry for an exact (already normalized) path.
func (idx *Index) Lookup(path string) (Entry, bool) {
	var e fb.Entry
	if !idx.root.EntriesByKey(&e, path) {
		return Entry{}, false
	}
	return fromFlatBuffers(&e), true
}

// Entries returns an iterator over all entries sorted by path.
func (idx *Index) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		var e fb.Entry
		for i := range idx.root.EntriesLength() {
			if !idx.root.Entries(&e, i) {
				return
			}
			if !yield(fromFlatBuffers(&e)) {
				return
			}
		}
	}
}

// EntriesWithPrefix returns an iterator over entries whose path starts with prefix.
func (idx *Index) EntriesWithPrefix(prefix string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		n := idx.root.EntriesLength()
		if n == 0 {
			return
		}
		prefixBytes := []byte(prefix)

		start := sort.Search(n, func(i int) bool {
			var e fb.Entry
			if !idx.root.Entries(&e, i) {
				return false
			}
			return bytes.Compare(e.Path(), prefixBytes) >= 0
		})

		var e fb.Entry
		for i := start; i < n; i++ {
			if !idx.root.Entries(&e, i) {
				return
			}
			if !bytes.HasPrefix(e.Path(), prefixBytes) {
				return
			}
			if !yield(fromFlatBuffers(&e)) {
				return
			}
		}
	}
}

// Paths returns every path in directory order.
func (idx *Index) Paths() []string {
	paths := make([]string, idx.Len())
	for e := range idx.Entries() {
		if int(e.Ordinal) < len(paths) {
			paths[e.Ordinal] = e.Path
		}
	}
	return paths
}

func fromFlatBuffers(e *fb.Entry) Entry {
	return Entry{
		Path:      string(e.Path()),
		Tag:       e.Tag(),
		RawLength: e.RawLength(),
		Length:    e.Length(),
		Checksum:  e.Checksum(),
		Offset:    e.Offset(),
		Ordinal:   e.Ordinal(),
	}
}

// cursor reads little-endian fields from a decrypted blob without ever
// reading past its end.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) uint32() (uint32, bool) {
	b, ok := c.bytes(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (c *cursor) bytes(n uint32) ([]byte, bool) {
	if uint64(n) > uint64(len(c.buf)-c.pos) {
		return nil, false
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, true
}
