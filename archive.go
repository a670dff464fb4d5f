package pvf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/pvf/cache"
	"github.com/meigma/pvf/internal/header"
	"github.com/meigma/pvf/internal/index"
	"github.com/meigma/pvf/internal/pvftype"
	"github.com/meigma/pvf/table"
	"github.com/meigma/pvf/textenc"
)

// Re-export types from internal/pvftype for public API.
type (
	// Entry represents a file in the archive directory.
	Entry = pvftype.Entry

	// Header is the fixed archive header.
	Header = pvftype.Header
)

// Archive provides random access to archive entries.
//
// Archive implements fs.FS, fs.StatFS, fs.ReadFileFS, and fs.ReadDirFS
// for compatibility with the standard library. It is safe for concurrent
// use: reads go through io.ReaderAt and every lazily built table is
// constructed once.
type Archive struct {
	source ByteSource
	hdr    *Header
	idx    *index.Index
	codec  *textenc.Codec

	encoding        string
	quote           string
	converter       textenc.Converter
	stringTablePath string
	stringLinkPath  string
	maxEntrySize    uint64
	cache           cache.Cache        // nil = no caching
	readGroup       singleflight.Group // zero value is valid
	tableGroup      singleflight.Group // zero value is valid
	logger          *slog.Logger

	strings  func() (*table.StringTable, error)
	links    func() (*table.IDPathTable, error)
	keyTexts sync.Map // normalized path -> *table.KeyTextTable
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New reads the header and directory from source.
//
// It fails with ErrFormat when either is malformed or truncated.
func New(source ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		source:          source,
		encoding:        DefaultEncoding,
		stringTablePath: DefaultStringTablePath,
		stringLinkPath:  DefaultStringLinkPath,
		maxEntrySize:    DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.converter == nil {
		conv, err := textenc.TraditionalToSimplified()
		if err != nil {
			return nil, err
		}
		a.converter = conv
	}
	codec, err := textenc.New(a.encoding, a.converter)
	if err != nil {
		return nil, err
	}
	a.codec = codec

	size := source.Size()
	hdr, dirBlob, err := header.Read(io.NewSectionReader(source, 0, size), size)
	if err != nil {
		return nil, err
	}
	idx, err := index.Decode(dirBlob, hdr.DirChecksum, hdr.EntryCount)
	if err != nil {
		return nil, err
	}
	a.hdr = hdr
	a.idx = idx

	a.strings = sync.OnceValues(a.loadStrings)
	a.links = sync.OnceValues(a.loadLinks)

	a.log().Debug("archive opened",
		slog.String("source", source.SourceID()),
		slog.Int("entries", idx.Len()),
		slog.Int("version", int(hdr.Version)))
	return a, nil
}

// Header returns a copy of the archive header.
func (a *Archive) Header() Header {
	h := *a.hdr
	h.ID = append([]byte(nil), a.hdr.ID...)
	return h
}

// String summarizes the archive header.
func (a *Archive) String() string {
	return fmt.Sprintf("PVF [%s]\nVer:%d\nTreeLength:%d\n%d files",
		a.hdr.ID, a.hdr.Version, a.hdr.DirLength, a.hdr.EntryCount)
}

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return a.idx.Len()
}

// Paths returns every entry path in directory order.
func (a *Archive) Paths() []string {
	return a.idx.Paths()
}

// Entry returns the entry for path.
func (a *Archive) Entry(path string) (Entry, bool) {
	return a.idx.Lookup(NormalizePath(path))
}

// Entries returns an iterator over all entries in path order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return a.idx.Entries()
}

// EntriesWithPrefix returns an iterator over entries whose path starts with
// prefix, in path order.
func (a *Archive) EntriesWithPrefix(prefix string) iter.Seq[Entry] {
	return a.idx.EntriesWithPrefix(NormalizePath(prefix))
}

// IndexData returns the FlatBuffers-encoded directory index.
func (a *Archive) IndexData() []byte {
	return a.idx.Data()
}

// Size returns the total archive size in bytes.
func (a *Archive) Size() int64 {
	return a.source.Size()
}

// Fetch returns the decrypted content of the entry at path.
//
// A missing path fails with ErrNotFound; an entry that exists but is empty
// returns an empty, non-nil slice. An entry whose range falls outside the
// archive or cannot be read fails with ErrCorruptEntry, and the failure is
// logged.
func (a *Archive) Fetch(path string) ([]byte, error) {
	return a.readFile("fetch", path, true)
}

// readFile resolves name and returns its content. When owned is true the
// caller gets a slice it may modify.
func (a *Archive) readFile(op, name string, owned bool) ([]byte, error) {
	p := NormalizePath(name)
	entry, ok := a.idx.Lookup(p)
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: ErrNotFound}
	}
	content, err := a.content(&entry, owned)
	if err != nil {
		a.log().Warn("entry unreadable", slog.String("path", p), slog.Any("error", err))
		return nil, &fs.PathError{Op: op, Path: name, Err: err}
	}
	return content, nil
}

// isSkippable reports whether err only affects a single entry.
func isSkippable(err error) bool {
	return errors.Is(err, ErrCorruptEntry) || errors.Is(err, ErrNotFound)
}
