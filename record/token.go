// Package record decodes entry blobs into typed tokens.
//
// An entry blob is a 2-byte preamble followed by 5-byte records: one tag
// byte and a 4-byte little-endian value. The tag decides how the value is
// read (integer, float, string-table index, or cross reference), which is
// captured by [Kind].
package record

import (
	"strconv"
	"strings"
)

// Tag is a record type byte.
type Tag uint8

// Known tags.
const (
	TagInt              Tag = 2
	TagIntEx            Tag = 3
	TagFloat            Tag = 4
	TagSection          Tag = 5
	TagCommand          Tag = 6
	TagString           Tag = 7
	TagCommandSeparator Tag = 8
	TagStringLinkIndex  Tag = 9
	TagStringLink       Tag = 10
)

var tagNames = map[Tag]string{
	TagInt:              "int",
	TagIntEx:            "intex",
	TagFloat:            "float",
	TagSection:          "section",
	TagCommand:          "command",
	TagString:           "string",
	TagCommandSeparator: "separator",
	TagStringLinkIndex:  "link",
	TagStringLink:       "linktext",
}

// String returns the tag's name, or its number for unknown tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Kind classifies how a tag's value is decoded.
type Kind int

// Kinds. KindUnknown records are dropped by the decoder.
const (
	KindUnknown Kind = iota
	KindLiteral
	KindFloat
	KindStringRef
	KindQuotedStringRef
	KindCrossRef
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindFloat:
		return "float"
	case KindStringRef:
		return "stringref"
	case KindQuotedStringRef:
		return "quotedstringref"
	case KindCrossRef:
		return "crossref"
	default:
		return "unknown"
	}
}

// Kind returns the decoding kind of t.
func (t Tag) Kind() Kind {
	switch t {
	case TagInt, TagIntEx:
		return KindLiteral
	case TagFloat:
		return KindFloat
	case TagSection, TagCommand, TagCommandSeparator:
		return KindStringRef
	case TagString:
		return KindQuotedStringRef
	case TagStringLinkIndex:
		return KindCrossRef
	default:
		return KindUnknown
	}
}

// Token is one decoded record.
//
// Int holds the value of literal tokens, Float the value of float tokens,
// and Text the resolved string of every other kind. For string and cross
// reference tokens Int keeps the raw index or id the text came from.
type Token struct {
	Tag   Tag
	Int   int32
	Float float32
	Text  string
}

// Kind returns the token's decoding kind.
func (t Token) Kind() Kind {
	return t.Tag.Kind()
}

// Value returns the token's value as int32, float32, or string.
func (t Token) Value() any {
	switch t.Kind() {
	case KindLiteral:
		return t.Int
	case KindFloat:
		return t.Float
	default:
		return t.Text
	}
}

// String returns the token's value as text.
func (t Token) String() string {
	switch t.Kind() {
	case KindLiteral:
		return strconv.FormatInt(int64(t.Int), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(t.Float), 'g', -1, 32)
	default:
		return t.Text
	}
}

// Format renders the token as "(tag, value)".
func (t Token) Format() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(int(t.Tag)))
	b.WriteString(", ")
	if k := t.Kind(); k == KindLiteral || k == KindFloat {
		b.WriteString(t.String())
	} else {
		b.WriteString(strconv.Quote(t.Text))
	}
	b.WriteByte(')')
	return b.String()
}
