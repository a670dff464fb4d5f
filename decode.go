package pvf

import (
	"fmt"
	"log/slog"

	"github.com/meigma/pvf/record"
	"github.com/meigma/pvf/tree"
)

// DecodeTokens decodes a decrypted record blob into tokens, resolving
// strings and cross references through the archive's tables.
//
// Unresolved cross references are dropped and logged unless DecodeStrict
// is set. A string index outside the string table fails with
// ErrCorruptEntry.
func (a *Archive) DecodeTokens(data []byte, opts ...DecodeOption) ([]record.Token, error) {
	cfg := decodeConfig{quote: a.quote}
	for _, opt := range opts {
		opt(&cfg)
	}
	st, err := a.strings()
	if err != nil {
		return nil, err
	}
	dec := record.NewDecoder(st,
		record.WithQuote(cfg.quote),
		record.WithLinks(a),
		record.WithStrict(cfg.strict),
		record.WithReferenceHandler(func(pos int, err error) {
			a.log().Warn("cross reference dropped", slog.Int("record", pos), slog.Any("error", err))
		}),
	)
	return dec.Decode(data)
}

// DecodeFile fetches the entry at path and decodes it into tokens.
func (a *Archive) DecodeFile(path string, opts ...DecodeOption) ([]record.Token, error) {
	data, err := a.readFile("decode", path, false)
	if err != nil {
		return nil, err
	}
	tokens, err := a.DecodeTokens(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return tokens, nil
}

// Tree fetches, decodes and rebuilds the section tree of the entry at path.
func (a *Archive) Tree(path string, opts ...DecodeOption) (*tree.Tree, error) {
	tokens, err := a.DecodeFile(path, opts...)
	if err != nil {
		return nil, err
	}
	return tree.Build(tokens), nil
}

// Interface compliance.
var _ record.LinkResolver = (*Archive)(nil)
