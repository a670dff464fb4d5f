package pvftype

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrFormat is returned when the header or directory is malformed or truncated.
	ErrFormat = errors.New("pvf: malformed archive")

	// ErrNotFound is returned when a path is absent from the directory.
	// It wraps fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("pvf: %w", fs.ErrNotExist)

	// ErrCorruptEntry is returned when an entry cannot be read or decoded.
	ErrCorruptEntry = errors.New("pvf: corrupt entry")

	// ErrReference is returned when a cross-reference token points at a
	// missing table entry.
	ErrReference = errors.New("pvf: unresolved reference")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("pvf: size overflow")
)
