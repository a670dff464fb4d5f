package pvf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ByteSource provides random access to archive bytes.
//
// SourceID must return a stable identifier for the underlying content; it
// scopes cache keys.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file     *os.File
	size     int64
	sourceID string
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	absPath, err := filepath.Abs(f.Name())
	if err != nil {
		absPath = f.Name()
	}
	return &fileSource{
		file:     f,
		size:     info.Size(),
		sourceID: fmt.Sprintf("file:%s:%d:%d", absPath, info.Size(), info.ModTime().UnixNano()),
	}, nil
}

// ReadAt implements io.ReaderAt.
func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (s *fileSource) Size() int64 {
	return s.size
}

// SourceID returns a stable identifier for the file content.
func (s *fileSource) SourceID() string {
	return s.sourceID
}

// ArchiveFile wraps an Archive with its underlying file handle.
// Close must be called to release file resources.
type ArchiveFile struct {
	*Archive
	file *os.File
}

// Close closes the underlying file.
func (af *ArchiveFile) Close() error {
	if af.file == nil {
		return nil
	}
	err := af.file.Close()
	af.file = nil
	return err
}

// Open opens an archive file for random access.
//
// The header and directory are decoded immediately; entries are read on
// demand. The returned ArchiveFile must be closed to release file resources.
func Open(path string, opts ...Option) (*ArchiveFile, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a, err := New(source, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &ArchiveFile{Archive: a, file: f}, nil
}

// Interface compliance.
var (
	_ ByteSource                 = (*fileSource)(nil)
	_ interface{ Close() error } = (*ArchiveFile)(nil)
)
