package tree

import (
	"strconv"
	"strings"

	"github.com/meigma/pvf/record"
)

// Segment is a section label with the values that follow it.
type Segment struct {
	Key    string
	Values []record.Token
}

// Segments groups tokens into flat sections without nesting. Keys are
// disambiguated the same way as in Build; closing markers are skipped and
// tokens before the first section are dropped.
func Segments(tokens []record.Token) []Segment {
	var out []Segment
	seen := make(map[string]bool)

	for _, tok := range tokens {
		if tok.Tag == record.TagSection {
			if strings.Contains(tok.Text, "/") {
				continue
			}
			key := tok.Text
			for i := 1; seen[key]; i++ {
				key = tok.Text + "-" + strconv.Itoa(i)
			}
			seen[key] = true
			out = append(out, Segment{Key: key})
			continue
		}
		if len(out) == 0 {
			continue
		}
		last := &out[len(out)-1]
		last.Values = append(last.Values, tok)
	}
	return out
}
