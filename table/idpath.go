package table

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/meigma/pvf/internal/pathutil"
)

// Record tags used inside id-table records.
const (
	idTag     = 2
	stringTag = 7
)

const (
	preambleLen = 2
	idRecordLen = 10
)

// IDPathTable maps numeric ids to archive paths.
type IDPathTable struct {
	paths map[uint32]string
}

// ParseIDPathTable decodes a decrypted id-table blob. Each resolved path is
// baseDir joined with the lowercased string-table entry, normalized to the
// directory key form.
//
// Each 10-byte record holds two (tag, value) slots. The id is the first
// value when its tag is 2, otherwise the second; the string index is the
// first value when its tag is 7, otherwise the second. Later records
// overwrite earlier ones with the same id.
func ParseIDPathTable(data []byte, baseDir string, strs *StringTable) (*IDPathTable, error) {
	t := &IDPathTable{paths: make(map[uint32]string)}
	for i := preambleLen; i+idRecordLen <= len(data); i += idRecordLen {
		rec := data[i : i+idRecordLen]
		tagA := int8(rec[0])
		valA := binary.LittleEndian.Uint32(rec[1:5])
		valB := binary.LittleEndian.Uint32(rec[6:10])

		id := valB
		if tagA == idTag {
			id = valA
		}
		idx := valB
		if tagA == stringTag {
			idx = valA
		}
		s, err := strs.Get(int(idx))
		if err != nil {
			return nil, fmt.Errorf("id table record %d: %w", (i-preambleLen)/idRecordLen, err)
		}
		t.paths[id] = pathutil.Normalize(baseDir + "/" + strings.ToLower(s))
	}
	return t, nil
}

// Len returns the number of ids in the table.
func (t *IDPathTable) Len() int {
	return len(t.paths)
}

// Lookup returns the path registered for id.
func (t *IDPathTable) Lookup(id uint32) (string, bool) {
	p, ok := t.paths[id]
	return p, ok
}

// All yields every (id, path) pair in ascending id order.
func (t *IDPathTable) All() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		ids := make([]uint32, 0, len(t.paths))
		for id := range t.paths {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if !yield(id, t.paths[id]) {
				return
			}
		}
	}
}
