// Package testutil builds synthetic encrypted archives for tests.
package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
	"math/bits"
	"testing"

	"github.com/meigma/pvf/internal/cipher"
	"github.com/meigma/pvf/internal/pvftype"
)

// DefaultID is the identifier written by BuildArchive.
const DefaultID = "00000000-test-archive-0000000000000"

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	sum := sha256.Sum256(data)
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + hex.EncodeToString(sum[:]),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns a stable identifier for the source data.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// Encrypt is the inverse of cipher.Decrypt. Archives are never written by
// the library, so it only exists here.
func Encrypt(plain []byte, checksum uint32) []byte {
	out := make([]byte, pvftype.RoundLength(uint32(len(plain))))
	copy(out, plain)
	key := cipher.Key(checksum)
	for i := 0; i < len(out); i += 4 {
		w := bits.RotateLeft32(binary.LittleEndian.Uint32(out[i:]), 6) ^ key
		binary.LittleEndian.PutUint32(out[i:], w)
	}
	return out
}

// File describes one archive entry.
type File struct {
	Path     string
	Data     []byte
	Checksum uint32
	Tag      uint32

	// BadOffset, when non-zero, is written to the directory instead of the
	// real offset.
	BadOffset uint32
}

// Archive holds a built archive and the layout facts tests assert on.
type Archive struct {
	Data        []byte
	HeaderLen   int64
	ContentBase int64
	Offsets     map[string]uint32
}

// BuildArchive encodes files into an archive image. Content is laid out in
// the order given; each entry is padded to a 4-byte boundary.
func BuildArchive(tb testing.TB, files []File) *Archive {
	tb.Helper()

	var dir, content bytes.Buffer
	offsets := make(map[string]uint32, len(files))
	for _, f := range files {
		offset := uint32(content.Len())
		offsets[f.Path] = offset
		content.Write(Encrypt(f.Data, f.Checksum))

		putU32(&dir, f.Tag)
		putU32(&dir, uint32(len(f.Path)))
		dir.WriteString(f.Path)
		putU32(&dir, uint32(len(f.Data)))
		putU32(&dir, f.Checksum)
		if f.BadOffset != 0 {
			putU32(&dir, f.BadOffset)
		} else {
			putU32(&dir, offset)
		}
	}

	const dirChecksum = 0x5EED1234
	dirBlob := Encrypt(dir.Bytes(), dirChecksum)

	var out bytes.Buffer
	putU32(&out, uint32(len(DefaultID)))
	out.WriteString(DefaultID)
	putU32(&out, 2) // version
	putU32(&out, uint32(len(dirBlob)))
	putU32(&out, dirChecksum)
	putU32(&out, uint32(len(files)))
	headerLen := int64(out.Len())
	out.Write(dirBlob)
	out.Write(content.Bytes())

	return &Archive{
		Data:        out.Bytes(),
		HeaderLen:   headerLen,
		ContentBase: headerLen + int64(len(dirBlob)),
		Offsets:     offsets,
	}
}

// StringTable encodes strings as a string-table blob (before encryption).
// The offset array always holds an even number of windows plus the closing offset.
func StringTable(strs ...string) []byte {
	if len(strs)%2 == 1 {
		strs = append(strs, "")
	}
	n := len(strs)

	var buf bytes.Buffer
	putU32(&buf, uint32(n/2))
	pos := uint32(4 * (n + 1))
	for _, s := range strs {
		putU32(&buf, pos)
		pos += uint32(len(s))
	}
	putU32(&buf, pos)
	for _, s := range strs {
		buf.WriteString(s)
	}
	return buf.Bytes()
}

// IDRecord is one 10-byte id-table record.
type IDRecord struct {
	TagA int8
	ValA uint32
	TagB int8
	ValB uint32
}

// IDTable encodes id-table records behind the 2-byte preamble.
func IDTable(records ...IDRecord) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xB0, 0xD0})
	for _, r := range records {
		buf.WriteByte(byte(r.TagA))
		putU32(&buf, r.ValA)
		buf.WriteByte(byte(r.TagB))
		putU32(&buf, r.ValB)
	}
	return buf.Bytes()
}

// Record is one 5-byte token record. Float is used when Tag is 4.
type Record struct {
	Tag   uint8
	Int   int32
	Float float32
}

// Tokens encodes token records behind the 2-byte preamble.
func Tokens(records ...Record) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xB0, 0xD0})
	for _, r := range records {
		buf.WriteByte(r.Tag)
		if r.Tag == 4 {
			putU32(&buf, math.Float32bits(r.Float))
			continue
		}
		putU32(&buf, uint32(r.Int))
	}
	return buf.Bytes()
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
