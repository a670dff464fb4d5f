package pvf

import (
	"io"
	"io/fs"
	"iter"
	"slices"
	"strings"

	"github.com/meigma/pvf/internal/file"
	"github.com/meigma/pvf/internal/index"
	"github.com/meigma/pvf/internal/pathutil"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// fsName normalizes name for the fs.FS methods and reports whether the
// result is a valid fs path.
func fsName(name string) (string, bool) {
	if name == "." {
		return name, true
	}
	p := NormalizePath(name)
	return p, fs.ValidPath(p)
}

// Open implements fs.FS.
//
// Open returns an fs.File holding the decrypted content of the named entry.
// Directories are synthesized from entry paths.
func (a *Archive) Open(name string) (fs.File, error) {
	p, ok := fsName(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if entry, ok := a.idx.Lookup(p); ok {
		content, err := a.content(&entry, true)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return file.NewFile(&entry, pathutil.Base(p), content), nil
	}

	if a.isDir(p) {
		return &openDir{a: a, name: p}, nil
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
}

// Stat implements fs.StatFS.
//
// Stat returns file info for the named entry without reading its content.
// For directories (paths that are prefixes of other entries), Stat returns
// synthetic directory info.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	p, ok := fsName(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}

	if entry, ok := a.idx.Lookup(p); ok {
		return file.NewInfo(&entry, pathutil.Base(p)), nil
	}

	if a.isDir(p) {
		return file.NewDirInfo(dirName(p)), nil
	}

	return nil, &fs.PathError{Op: "stat", Path: name, Err: ErrNotFound}
}

// ReadFile implements fs.ReadFileFS.
//
// ReadFile returns the decrypted content of the named entry. It behaves
// like Fetch but rejects names that are not valid fs paths.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if _, ok := fsName(name); !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	return a.readFile("readfile", name, true)
}

// ReadDir implements fs.ReadDirFS.
//
// ReadDir returns directory entries for the named directory, sorted by name.
// Directory entries are synthesized from entry paths; the archive does not
// store directories explicitly.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	p, ok := fsName(name)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	di := newDirIter(a.idx, pathutil.DirPrefix(p))
	defer di.Close()

	entries := make([]fs.DirEntry, 0)
	for {
		entry, ok := di.Next()
		if !ok {
			break
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 && p != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotFound}
	}

	sortDirEntries(entries)
	return entries, nil
}

// Path order puts "a-b" before "a/..." so the synthesized listing is
// re-sorted by name.
func sortDirEntries(entries []fs.DirEntry) {
	slices.SortFunc(entries, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
}

func dirName(p string) string {
	if p == "." {
		return "."
	}
	return pathutil.Base(p)
}

// isDir checks if name is a directory (has entries under it).
func (a *Archive) isDir(name string) bool {
	if name == "." {
		return a.idx.Len() > 0
	}
	for range a.idx.EntriesWithPrefix(name + "/") {
		return true
	}
	return false
}

// openDir implements fs.File and fs.ReadDirFile for synthetic directories.
type openDir struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	loaded  bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return file.NewDirInfo(dirName(d.name)), nil
}

func (d *openDir) Close() error {
	d.entries = nil
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		d.loaded = true
		di := newDirIter(d.a.idx, pathutil.DirPrefix(d.name))
		for {
			entry, ok := di.Next()
			if !ok {
				break
			}
			d.entries = append(d.entries, entry)
		}
		di.Close()
		sortDirEntries(d.entries)
	}

	if n <= 0 {
		out := d.entries
		d.entries = nil
		if out == nil {
			out = make([]fs.DirEntry, 0)
		}
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}

// dirIter iterates over directory entries, synthesizing subdirectories.
// It deduplicates entries that share a common directory component and
// yields synthetic directory entries for nested paths.
type dirIter struct {
	next     func() (Entry, bool)
	stop     func()
	prefix   string
	lastName string
	done     bool
}

// newDirIter creates a directory iterator for entries under prefix.
func newDirIter(idx *index.Index, prefix string) *dirIter {
	next, stop := iter.Pull(idx.EntriesWithPrefix(prefix))
	return &dirIter{
		next:   next,
		stop:   stop,
		prefix: prefix,
	}
}

// Next returns the next directory entry, synthesizing subdirectory entries
// when files exist in nested paths.
func (it *dirIter) Next() (fs.DirEntry, bool) {
	if it.done {
		return nil, false
	}
	for {
		entry, ok := it.next()
		if !ok {
			it.Close()
			return nil, false
		}

		childName, isSubDir := pathutil.Child(entry.Path, it.prefix)
		if childName == it.lastName {
			continue
		}
		it.lastName = childName

		if isSubDir {
			return file.NewDirEntry(file.NewDirInfo(childName)), true
		}
		return file.NewDirEntry(file.NewInfo(&entry, childName)), true
	}
}

// Close releases resources held by the iterator.
func (it *dirIter) Close() {
	if it.done {
		return
	}
	it.done = true
	if it.stop != nil {
		it.stop()
		it.stop = nil
	}
}
