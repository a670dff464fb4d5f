// Package textenc decodes archive text fields.
//
// Text is decoded leniently: byte sequences that are invalid for the
// archive's charset become U+FFFD instead of failing the decode. Decoded
// text is then passed through a script Converter, which by default maps
// traditional Chinese characters to simplified ones.
package textenc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the charset archives are assumed to use.
const DefaultEncoding = "big5"

// Converter normalizes the script of decoded text.
// Implementations must be safe for concurrent use.
type Converter interface {
	Convert(s string) string
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(string) string

// Convert calls f(s).
func (f ConverterFunc) Convert(s string) string { return f(s) }

// Identity leaves text unchanged.
var Identity Converter = ConverterFunc(func(s string) string { return s })

type openccConverter struct {
	cc *opencc.OpenCC
}

// Convert returns s unchanged if the conversion fails.
func (c openccConverter) Convert(s string) string {
	out, err := c.cc.Convert(s)
	if err != nil {
		return s
	}
	return out
}

var defaultConverter = sync.OnceValues(func() (Converter, error) {
	cc, err := opencc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("load t2s dictionaries: %w", err)
	}
	return openccConverter{cc: cc}, nil
})

// TraditionalToSimplified returns the shared OpenCC t2s converter.
// The dictionaries are loaded once per process.
func TraditionalToSimplified() (Converter, error) {
	return defaultConverter()
}

// Lookup returns the charset registered under name (e.g., "big5", "gbk",
// "utf-8"). Names follow the WHATWG encoding labels.
func Lookup(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}
	return enc, nil
}

// Codec decodes bytes in one charset and normalizes the result.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	name string
	enc  encoding.Encoding
	conv Converter
}

// New returns a Codec for the named charset. A nil conv means Identity.
func New(name string, conv Converter) (*Codec, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		conv = Identity
	}
	return &Codec{name: name, enc: enc, conv: conv}, nil
}

// Name returns the charset name the codec was created with.
func (c *Codec) Name() string {
	return c.name
}

// Raw decodes b without script normalization.
func (c *Codec) Raw(b []byte) string {
	// Decoders carry state, so each call gets its own.
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// Decode decodes b and normalizes its script.
func (c *Codec) Decode(b []byte) string {
	return c.conv.Convert(c.Raw(b))
}

// Normalize applies only the script conversion.
func (c *Codec) Normalize(s string) string {
	return c.conv.Convert(s)
}
