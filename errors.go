package pvf

import "github.com/meigma/pvf/internal/pvftype"

// Sentinel errors re-exported from internal/pvftype.
var (
	// ErrFormat is returned when the header or directory is malformed or truncated.
	ErrFormat = pvftype.ErrFormat

	// ErrNotFound is returned when a path is absent from the directory.
	// It wraps fs.ErrNotExist.
	ErrNotFound = pvftype.ErrNotFound

	// ErrCorruptEntry is returned when an entry's bytes cannot be read or decoded.
	ErrCorruptEntry = pvftype.ErrCorruptEntry

	// ErrReference is returned when a cross reference points at a missing
	// table entry.
	ErrReference = pvftype.ErrReference

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = pvftype.ErrSizeOverflow
)
