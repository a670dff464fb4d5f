package pvf

import (
	"log/slog"

	"github.com/meigma/pvf/cache"
	"github.com/meigma/pvf/textenc"
)

// Defaults applied by New.
const (
	// DefaultEncoding is the charset of archive text.
	DefaultEncoding = textenc.DefaultEncoding

	// DefaultStringTablePath is the entry holding the global string table.
	DefaultStringTablePath = "stringtable.bin"

	// DefaultStringLinkPath is the id table used to resolve cross references.
	DefaultStringLinkPath = "n_string.lst"

	// DefaultMaxEntrySize is the default limit on a single entry (256 MB).
	DefaultMaxEntrySize = 256 << 20
)

// Option configures an Archive.
type Option func(*Archive)

// WithEncoding sets the charset used to decode all text fields
// (default "big5"). Names follow the WHATWG encoding labels.
func WithEncoding(name string) Option {
	return func(a *Archive) {
		a.encoding = name
	}
}

// WithQuote sets the characters wrapped around string tokens by default.
// DecodeWithQuote overrides it per call.
func WithQuote(q string) Option {
	return func(a *Archive) {
		a.quote = q
	}
}

// WithConverter replaces the traditional-to-simplified script conversion
// applied to decoded text. Use textenc.Identity to keep text unchanged.
func WithConverter(c textenc.Converter) Option {
	return func(a *Archive) {
		a.converter = c
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithCache enables caching of decrypted entries.
//
// Concurrent reads of the same uncached entry are deduplicated.
func WithCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.cache = c
	}
}

// WithStringTablePath overrides the path of the global string table.
func WithStringTablePath(path string) Option {
	return func(a *Archive) {
		a.stringTablePath = path
	}
}

// WithStringLinkPath overrides the path of the id table used to resolve
// cross references.
func WithStringLinkPath(path string) Option {
	return func(a *Archive) {
		a.stringLinkPath = path
	}
}

// WithMaxEntrySize limits the size of a single entry. Larger entries are
// reported as corrupt. Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}

// DecodeOption configures a single decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	quote  string
	strict bool
}

// DecodeWithQuote wraps the text of string tokens in q.
func DecodeWithQuote(q string) DecodeOption {
	return func(c *decodeConfig) {
		c.quote = q
	}
}

// DecodeStrict makes an unresolved cross reference fail the decode with
// ErrReference instead of dropping the token.
func DecodeStrict(strict bool) DecodeOption {
	return func(c *decodeConfig) {
		c.strict = strict
	}
}

// BatchOption configures DecodeAll.
type BatchOption func(*batchConfig)

type batchConfig struct {
	workers           int
	readAheadBytes    uint64
	readAheadBytesSet bool
	decode            []DecodeOption
}

// BatchWithWorkers sets the number of entries decoded concurrently.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func BatchWithWorkers(n int) BatchOption {
	return func(c *batchConfig) {
		c.workers = n
	}
}

// BatchWithReadAheadBytes caps the decrypted bytes held by in-flight
// entries. A value of 0 disables the byte budget.
func BatchWithReadAheadBytes(limit uint64) BatchOption {
	return func(c *batchConfig) {
		c.readAheadBytes = limit
		c.readAheadBytesSet = true
	}
}

// BatchWithDecodeOptions applies decode options to every entry.
func BatchWithDecodeOptions(opts ...DecodeOption) BatchOption {
	return func(c *batchConfig) {
		c.decode = append(c.decode, opts...)
	}
}
