package table

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/pvf/internal/pvftype"
	"github.com/meigma/pvf/textenc"
)

// StringTable is the decoded global string table.
type StringTable struct {
	strs []string
}

// ParseStringTable decodes a decrypted string-table blob.
//
// The blob starts with a count c followed by 2c+1 offsets. String i spans
// the window [off[i], off[i+1]) of the bytes following the count. A window
// running past the end of the blob is clipped; an inverted one is empty.
func ParseStringTable(data []byte, codec *textenc.Codec) (*StringTable, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: string table shorter than its count", pvftype.ErrCorruptEntry)
	}
	n := uint64(binary.LittleEndian.Uint32(data)) * 2
	region := data[4:]
	if n > 0 && (n+1)*4 > uint64(len(region)) {
		return nil, fmt.Errorf("%w: string table declares %d strings in %d bytes",
			pvftype.ErrCorruptEntry, n, len(data))
	}

	strs := make([]string, n)
	for i := range strs {
		start := uint64(binary.LittleEndian.Uint32(region[i*4:]))
		end := uint64(binary.LittleEndian.Uint32(region[i*4+4:]))
		end = min(end, uint64(len(region)))
		if start >= end {
			continue
		}
		strs[i] = codec.Decode(region[start:end])
	}
	return &StringTable{strs: strs}, nil
}

// NewStringTable wraps already-decoded strings. It is mainly useful for
// tests and for callers that build tables from another source.
func NewStringTable(strs []string) *StringTable {
	return &StringTable{strs: append([]string(nil), strs...)}
}

// Len returns the number of strings.
func (t *StringTable) Len() int {
	return len(t.strs)
}

// Get returns string i. An index outside the table is a corruption of the
// blob that referenced it.
func (t *StringTable) Get(i int) (string, error) {
	if i < 0 || i >= len(t.strs) {
		return "", fmt.Errorf("%w: string index %d out of range [0,%d)",
			pvftype.ErrCorruptEntry, i, len(t.strs))
	}
	return t.strs[i], nil
}
