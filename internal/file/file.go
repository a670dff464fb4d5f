// Package file provides the fs.File and fs.FileInfo values the archive
// hands out through its fs.FS surface.
package file

import (
	"bytes"
	"io"
	"io/fs"
	"time"

	"github.com/meigma/pvf/internal/pvftype"
)

// Entry is an alias for the shared entry type.
type Entry = pvftype.Entry

// File is an open archive entry whose content has already been decrypted.
type File struct {
	*bytes.Reader
	info *Info
}

// Interface compliance.
var (
	_ fs.File     = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
)

// NewFile wraps decrypted content. name is the base name reported by Stat.
func NewFile(entry *Entry, name string, content []byte) *File {
	return &File{
		Reader: bytes.NewReader(content),
		info:   NewInfo(entry, name),
	}
}

// Stat returns the entry's file info.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

// Close is a no-op; the content lives in memory.
func (f *File) Close() error {
	return nil
}

// Info implements fs.FileInfo for regular files.
type Info struct {
	entry Entry
	name  string
}

// NewInfo creates an Info from an entry.
func NewInfo(entry *Entry, name string) *Info {
	return &Info{entry: *entry, name: name}
}

func (fi *Info) Name() string       { return fi.name }
func (fi *Info) Size() int64        { return int64(fi.entry.Length) }
func (fi *Info) Mode() fs.FileMode  { return 0o444 }
func (fi *Info) ModTime() time.Time { return time.Time{} }
func (fi *Info) IsDir() bool        { return false }

// Sys returns the underlying pvftype.Entry.
func (fi *Info) Sys() any { return &fi.entry }

// Entry returns the underlying archive entry.
func (fi *Info) Entry() *Entry {
	return &fi.entry
}

// DirInfo implements fs.FileInfo for synthetic directories.
type DirInfo struct {
	name string
}

// NewDirInfo creates a DirInfo with the given name.
func NewDirInfo(name string) *DirInfo {
	return &DirInfo{name: name}
}

func (di *DirInfo) Name() string       { return di.name }
func (di *DirInfo) Size() int64        { return 0 }
func (di *DirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di *DirInfo) ModTime() time.Time { return time.Time{} }
func (di *DirInfo) IsDir() bool        { return true }
func (di *DirInfo) Sys() any           { return nil }

// DirEntry implements fs.DirEntry by wrapping fs.FileInfo.
type DirEntry struct {
	info fs.FileInfo
}

// NewDirEntry creates a DirEntry wrapping the given FileInfo.
func NewDirEntry(info fs.FileInfo) *DirEntry {
	return &DirEntry{info: info}
}

func (de *DirEntry) Name() string               { return de.info.Name() }
func (de *DirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *DirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *DirEntry) Info() (fs.FileInfo, error) { return de.info, nil }
func (de *DirEntry) String() string             { return fs.FormatDirEntry(de) }
