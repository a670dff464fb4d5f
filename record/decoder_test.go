package record

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pvf/internal/pvftype"
	"github.com/meigma/pvf/internal/testutil"
	"github.com/meigma/pvf/table"
)

func TestDecodeLiterals(t *testing.T) {
	t.Parallel()

	data := []byte{0xB0, 0xD0, 0x02, 0x02, 0x00, 0x00, 0x00, 0x03, 0x05, 0x00, 0x00, 0x00}
	got, err := NewDecoder(table.NewStringTable(nil)).Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []Token{
		{Tag: TagInt, Int: 2},
		{Tag: TagIntEx, Int: 5},
	}, got)
}

func TestDecodeAllKinds(t *testing.T) {
	t.Parallel()

	strs := table.NewStringTable([]string{"[name]", "sword", "`cmd`", "name_1"})
	links := LinkResolverFunc(func(id uint32, key string) (string, error) {
		if id == 42 && key == "name_1" {
			return "Long Sword", nil
		}
		return "", fmt.Errorf("%w: %d/%s", pvftype.ErrReference, id, key)
	})

	data := testutil.Tokens(
		testutil.Record{Tag: 5, Int: 0},
		testutil.Record{Tag: 7, Int: 1},
		testutil.Record{Tag: 2, Int: -7},
		testutil.Record{Tag: 4, Float: 1.5},
		testutil.Record{Tag: 6, Int: 2},
		testutil.Record{Tag: 8, Int: 2},
		testutil.Record{Tag: 9, Int: 42},
		testutil.Record{Tag: 10, Int: 3},
		testutil.Record{Tag: 11, Int: 0},
	)

	got, err := NewDecoder(strs, WithQuote("`"), WithLinks(links)).Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []Token{
		{Tag: TagSection, Int: 0, Text: "[name]"},
		{Tag: TagString, Int: 1, Text: "`sword`"},
		{Tag: TagInt, Int: -7},
		{Tag: TagFloat, Float: 1.5},
		{Tag: TagCommand, Int: 2, Text: "`cmd`"},
		{Tag: TagCommandSeparator, Int: 2, Text: "`cmd`"},
		{Tag: TagStringLinkIndex, Int: 42, Text: "Long Sword"},
	}, got)
}

func TestDecodeLinkConsumesKeyRecord(t *testing.T) {
	t.Parallel()

	strs := table.NewStringTable([]string{"key"})
	links := LinkResolverFunc(func(uint32, string) (string, error) { return "text", nil })

	// The record after the link is a valid section, but is consumed as key.
	data := testutil.Tokens(
		testutil.Record{Tag: 9, Int: 1},
		testutil.Record{Tag: 5, Int: 0},
		testutil.Record{Tag: 2, Int: 3},
	)
	got, err := NewDecoder(strs, WithLinks(links)).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{Tag: TagStringLinkIndex, Int: 1, Text: "text"},
		{Tag: TagInt, Int: 3},
	}, got)
}

func TestDecodeReferenceErrors(t *testing.T) {
	t.Parallel()

	strs := table.NewStringTable([]string{"key"})
	missing := LinkResolverFunc(func(id uint32, key string) (string, error) {
		return "", fmt.Errorf("%w: id %d", pvftype.ErrReference, id)
	})
	data := testutil.Tokens(
		testutil.Record{Tag: 2, Int: 1},
		testutil.Record{Tag: 9, Int: 5},
		testutil.Record{Tag: 7, Int: 0},
		testutil.Record{Tag: 2, Int: 2},
		testutil.Record{Tag: 9, Int: 6},
	)

	t.Run("lenient drops tokens", func(t *testing.T) {
		t.Parallel()

		var positions []int
		var errs []error
		d := NewDecoder(strs, WithLinks(missing), WithReferenceHandler(func(pos int, err error) {
			positions = append(positions, pos)
			errs = append(errs, err)
		}))
		got, err := d.Decode(data)
		require.NoError(t, err)

		assert.Equal(t, []Token{{Tag: TagInt, Int: 1}, {Tag: TagInt, Int: 2}}, got)
		assert.Equal(t, []int{1, 4}, positions)
		for _, e := range errs {
			assert.ErrorIs(t, e, pvftype.ErrReference)
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		t.Parallel()

		_, err := NewDecoder(strs, WithLinks(missing), WithStrict(true)).Decode(data)
		require.ErrorIs(t, err, pvftype.ErrReference)
	})

	t.Run("no resolver", func(t *testing.T) {
		t.Parallel()

		_, err := NewDecoder(strs, WithStrict(true)).Decode(data)
		require.ErrorIs(t, err, pvftype.ErrReference)
	})
}

func TestDecodeStringIndexOutOfRange(t *testing.T) {
	t.Parallel()

	data := testutil.Tokens(testutil.Record{Tag: 5, Int: 3})
	_, err := NewDecoder(table.NewStringTable([]string{"a"})).Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pvftype.ErrCorruptEntry))

	data = testutil.Tokens(testutil.Record{Tag: 7, Int: -1})
	_, err = NewDecoder(table.NewStringTable([]string{"a"})).Decode(data)
	require.ErrorIs(t, err, pvftype.ErrCorruptEntry)
}

func TestDecodeShortInput(t *testing.T) {
	t.Parallel()

	d := NewDecoder(table.NewStringTable(nil))
	for _, data := range [][]byte{nil, {0xB0}, {0xB0, 0xD0}, {0xB0, 0xD0, 2, 1, 0}} {
		got, err := d.Decode(data)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestTokenString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-3", Token{Tag: TagInt, Int: -3}.String())
	assert.Equal(t, "0.25", Token{Tag: TagFloat, Float: 0.25}.String())
	assert.Equal(t, "[name]", Token{Tag: TagSection, Text: "[name]"}.String())
	assert.Equal(t, `(5, "[name]")`, Token{Tag: TagSection, Text: "[name]"}.Format())
	assert.Equal(t, "(2, 2)", Token{Tag: TagInt, Int: 2}.Format())
	assert.Equal(t, int32(7), Token{Tag: TagIntEx, Int: 7}.Value())
	assert.Equal(t, "section", TagSection.String())
	assert.Equal(t, "tag(200)", Tag(200).String())
}

func TestTagKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  Tag
		kind Kind
	}{
		{TagInt, KindLiteral},
		{TagIntEx, KindLiteral},
		{TagFloat, KindFloat},
		{TagSection, KindStringRef},
		{TagCommand, KindStringRef},
		{TagCommandSeparator, KindStringRef},
		{TagString, KindQuotedStringRef},
		{TagStringLinkIndex, KindCrossRef},
		{TagStringLink, KindUnknown},
		{Tag(0), KindUnknown},
		{Tag(1), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.kind, tt.tag.Kind())
		})
	}
}
