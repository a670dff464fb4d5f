package table

import (
	"bytes"
	"iter"
	"strings"

	"github.com/meigma/pvf/textenc"
)

// Absent is the value of a key whose line carries no text, and what
// [KeyTextTable.Get] returns for unknown keys.
const Absent = "None"

// KeyTextTable maps keys to substitution text.
type KeyTextTable struct {
	keys []string
	text map[string]string
}

// ParseKeyTextTable decodes a decrypted key>value text blob. Only lines
// containing '>' are kept; each is split on its first '>'. The NUL padding
// that rounds entries to 4 bytes is ignored.
func ParseKeyTextTable(data []byte, codec *textenc.Codec) *KeyTextTable {
	return ParseKeyText(codec.Decode(bytes.TrimRight(data, "\x00")))
}

// ParseKeyText parses already-decoded key>value text.
func ParseKeyText(text string) *KeyTextTable {
	t := &KeyTextTable{text: make(map[string]string)}
	for line := range strings.SplitSeq(text, "\n") {
		key, value, ok := strings.Cut(line, ">")
		if !ok {
			continue
		}
		value = strings.TrimRight(value, "\r")
		if value == "" {
			value = Absent
		}
		if _, seen := t.text[key]; !seen {
			t.keys = append(t.keys, key)
		}
		t.text[key] = value
	}
	return t
}

// Len returns the number of keys.
func (t *KeyTextTable) Len() int {
	return len(t.keys)
}

// Lookup returns the text for key and whether the key exists.
func (t *KeyTextTable) Lookup(key string) (string, bool) {
	v, ok := t.text[key]
	return v, ok
}

// Get returns the text for key, or Absent when the key is unknown.
func (t *KeyTextTable) Get(key string) string {
	if v, ok := t.text[key]; ok {
		return v
	}
	return Absent
}

// All yields every (key, text) pair in first-seen order.
func (t *KeyTextTable) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range t.keys {
			if !yield(k, t.text[k]) {
				return
			}
		}
	}
}
