package record

import (
	"fmt"

	"github.com/meigma/pvf/internal/pvftype"
)

// Strings resolves string-table indices.
type Strings interface {
	Get(i int) (string, error)
}

// LinkResolver resolves a cross reference: id selects a key>value table
// and key is looked up inside it. Failures should wrap pvf's ErrReference.
type LinkResolver interface {
	ResolveLink(id uint32, key string) (string, error)
}

// LinkResolverFunc adapts a function to LinkResolver.
type LinkResolverFunc func(id uint32, key string) (string, error)

// ResolveLink calls f(id, key).
func (f LinkResolverFunc) ResolveLink(id uint32, key string) (string, error) {
	return f(id, key)
}

// Decoder turns raw records into tokens. A Decoder is safe for concurrent
// use once configured.
type Decoder struct {
	strs     Strings
	links    LinkResolver
	quote    string
	strict   bool
	onRefErr func(pos int, err error)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithQuote wraps the text of string tokens in q on both sides.
func WithQuote(q string) Option {
	return func(d *Decoder) {
		d.quote = q
	}
}

// WithLinks sets the resolver for cross-reference tokens. Without one,
// every cross reference is unresolved.
func WithLinks(r LinkResolver) Option {
	return func(d *Decoder) {
		d.links = r
	}
}

// WithStrict makes an unresolved cross reference fail the decode instead
// of dropping the token.
func WithStrict(strict bool) Option {
	return func(d *Decoder) {
		d.strict = strict
	}
}

// WithReferenceHandler is called for every dropped cross reference with the
// record position and the error.
func WithReferenceHandler(fn func(pos int, err error)) Option {
	return func(d *Decoder) {
		d.onRefErr = fn
	}
}

// NewDecoder returns a decoder resolving strings through strs.
func NewDecoder(strs Strings, opts ...Option) *Decoder {
	d := &Decoder{strs: strs}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes a decrypted blob into tokens.
//
// Records with unknown tags are skipped. A cross-reference record consumes
// the following record as its key. A string index outside the string table
// fails with ErrCorruptEntry.
func (d *Decoder) Decode(data []byte) ([]Token, error) {
	raws := ParseRaw(data)
	tokens := make([]Token, 0, len(raws))

	for i := 0; i < len(raws); i++ {
		r := raws[i]
		switch r.Tag.Kind() {
		case KindLiteral:
			tokens = append(tokens, Token{Tag: r.Tag, Int: r.Int()})

		case KindFloat:
			tokens = append(tokens, Token{Tag: r.Tag, Float: r.Float()})

		case KindStringRef, KindQuotedStringRef:
			s, err := d.str(i, r)
			if err != nil {
				return nil, err
			}
			if r.Tag.Kind() == KindQuotedStringRef {
				s = d.quote + s + d.quote
			}
			tokens = append(tokens, Token{Tag: r.Tag, Int: r.Int(), Text: s})

		case KindCrossRef:
			tok, err := d.link(i, raws)
			i++
			if err != nil {
				if d.strict {
					return nil, err
				}
				if d.onRefErr != nil {
					d.onRefErr(i-1, err)
				}
				continue
			}
			tokens = append(tokens, tok)

		case KindUnknown:
			// dropped
		}
	}
	return tokens, nil
}

func (d *Decoder) str(pos int, r Raw) (string, error) {
	s, err := d.strs.Get(int(r.Int()))
	if err != nil {
		return "", fmt.Errorf("record %d (%s): %w", pos, r.Tag, err)
	}
	return s, nil
}

func (d *Decoder) link(pos int, raws []Raw) (Token, error) {
	r := raws[pos]
	if pos+1 >= len(raws) {
		return Token{}, fmt.Errorf("%w: record %d: link id %d has no key record",
			pvftype.ErrReference, pos, r.Bits)
	}
	key, err := d.strs.Get(int(raws[pos+1].Int()))
	if err != nil {
		return Token{}, fmt.Errorf("%w: record %d: link key: %w", pvftype.ErrReference, pos, err)
	}
	if d.links == nil {
		return Token{}, fmt.Errorf("%w: record %d: no link resolver", pvftype.ErrReference, pos)
	}
	text, err := d.links.ResolveLink(r.Bits, key)
	if err != nil {
		return Token{}, fmt.Errorf("record %d: %w", pos, err)
	}
	return Token{Tag: r.Tag, Int: r.Int(), Text: text}, nil
}
