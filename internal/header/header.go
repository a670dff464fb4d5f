// Package header reads the fixed archive header and the encrypted directory blob.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/pvf/internal/pvftype"
)

// maxIDLength bounds the identifier so a corrupt length cannot force a huge allocation.
const maxIDLength = 1 << 16

// Header is an alias for the shared header type.
type Header = pvftype.Header

// fixedFields follows the identifier in the header.
type fixedFields struct {
	Version     int32
	DirLength   int32
	DirChecksum uint32
	EntryCount  uint32
}

// Read parses the header from r and returns it together with the still
// encrypted directory blob. size is the total archive length and is used to
// reject lengths that cannot fit.
func Read(r io.Reader, size int64) (*Header, []byte, error) {
	var idLen uint32
	if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
		return nil, nil, wrap("identifier length", err)
	}
	if idLen > maxIDLength || int64(idLen) > size {
		return nil, nil, fmt.Errorf("%w: identifier length %d", pvftype.ErrFormat, idLen)
	}

	id := make([]byte, idLen)
	if _, err := io.ReadFull(r, id); err != nil {
		return nil, nil, wrap("identifier", err)
	}

	var fields fixedFields
	if err := binary.Read(r, binary.LittleEndian, &fields); err != nil {
		return nil, nil, wrap("header fields", err)
	}

	h := &Header{
		ID:          id,
		Version:     fields.Version,
		DirLength:   fields.DirLength,
		DirChecksum: fields.DirChecksum,
		EntryCount:  fields.EntryCount,
		Length:      int64(4 + idLen + uint32(binary.Size(fields))),
	}

	if h.DirLength < 0 || h.ContentBase() > size {
		return nil, nil, fmt.Errorf("%w: directory length %d exceeds archive size %d",
			pvftype.ErrFormat, h.DirLength, size)
	}

	blob := make([]byte, h.DirLength)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, nil, wrap("directory blob", err)
	}
	return h, blob, nil
}

func wrap(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", pvftype.ErrFormat, field)
	}
	return fmt.Errorf("read %s: %w", field, err)
}
