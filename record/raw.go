package record

import (
	"encoding/binary"
	"math"
)

const (
	// PreambleLen is the number of leading bytes skipped before the records.
	PreambleLen = 2
	// RecordLen is the size of one record.
	RecordLen = 5
)

// Raw is an undecoded record.
type Raw struct {
	Tag  Tag
	Bits uint32
}

// Int returns the value as a signed integer.
func (r Raw) Int() int32 {
	return int32(r.Bits)
}

// Float returns the value as an IEEE-754 float.
func (r Raw) Float() float32 {
	return math.Float32frombits(r.Bits)
}

// ParseRaw splits a decrypted blob into raw records. Bytes that do not
// form a whole record at the end are ignored.
func ParseRaw(data []byte) []Raw {
	if len(data) < PreambleLen {
		return nil
	}
	data = data[PreambleLen:]
	out := make([]Raw, len(data)/RecordLen)
	for i := range out {
		rec := data[i*RecordLen:]
		out[i] = Raw{Tag: Tag(rec[0]), Bits: binary.LittleEndian.Uint32(rec[1:5])}
	}
	return out
}
