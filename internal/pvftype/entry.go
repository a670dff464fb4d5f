// Package pvftype holds the types and sentinel errors shared between the
// archive packages. The root package re-exports them.
package pvftype

// Entry represents a file in the archive directory.
type Entry struct {
	// Path is the lowercase archive path (e.g., "equipment/equipment.lst").
	Path string

	// Tag is the opaque per-entry word that precedes the path in the directory.
	Tag uint32

	// RawLength is the content length as declared in the directory.
	RawLength uint32

	// Length is RawLength rounded up to a multiple of 4. It is the number of
	// bytes read from the content region and returned after decryption.
	Length uint32

	// Checksum seeds the decryption key for this entry.
	Checksum uint32

	// Offset is relative to the start of the content region.
	Offset uint32

	// Ordinal is the position of the entry in the directory blob.
	Ordinal uint32
}

// Header is the fixed archive header.
type Header struct {
	// ID is the archive identifier.
	ID []byte

	// Version is the archive format version.
	Version int32

	// DirLength is the length of the encrypted directory blob.
	DirLength int32

	// DirChecksum seeds the decryption key for the directory blob.
	DirChecksum uint32

	// EntryCount is the number of directory entries.
	EntryCount uint32

	// Length is the byte length of the fixed header (the directory blob starts here).
	Length int64
}

// ContentBase returns the absolute offset where the content region begins.
func (h *Header) ContentBase() int64 {
	return h.Length + int64(h.DirLength)
}

// RoundLength rounds a declared content length up to the next multiple of 4.
func RoundLength(n uint32) uint32 {
	return (n + 3) &^ 3
}
