package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pvf/internal/pvftype"
	"github.com/meigma/pvf/internal/testutil"
	"github.com/meigma/pvf/textenc"
)

func utf8Codec(t *testing.T) *textenc.Codec {
	t.Helper()
	c, err := textenc.New("utf-8", nil)
	require.NoError(t, err)
	return c
}

func TestParseStringTable(t *testing.T) {
	t.Parallel()

	data := testutil.StringTable("sword", "shield", "[name]")
	st, err := ParseStringTable(data, utf8Codec(t))
	require.NoError(t, err)

	require.Equal(t, 4, st.Len())
	for i, want := range []string{"sword", "shield", "[name]", ""} {
		got, err := st.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "index %d", i)
	}
}

func TestStringTableIndexStable(t *testing.T) {
	t.Parallel()

	st, err := ParseStringTable(testutil.StringTable("a", "b"), utf8Codec(t))
	require.NoError(t, err)

	first, err := st.Get(1)
	require.NoError(t, err)
	second, err := st.Get(1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStringTableOutOfRange(t *testing.T) {
	t.Parallel()

	st := NewStringTable([]string{"a"})
	for _, i := range []int{-1, 1, 100} {
		_, err := st.Get(i)
		assert.ErrorIs(t, err, pvftype.ErrCorruptEntry, "index %d", i)
	}
}

func TestParseStringTableCorrupt(t *testing.T) {
	t.Parallel()

	codec := utf8Codec(t)

	_, err := ParseStringTable([]byte{1, 0}, codec)
	require.ErrorIs(t, err, pvftype.ErrCorruptEntry)

	// Count of 4 pairs with no offsets behind it.
	_, err = ParseStringTable([]byte{4, 0, 0, 0, 0, 0, 0, 0}, codec)
	require.ErrorIs(t, err, pvftype.ErrCorruptEntry)
}

func TestParseStringTableLenientWindows(t *testing.T) {
	t.Parallel()

	// count=1: offsets 12, 100 (past end), 5 (inverted).
	data := []byte{
		1, 0, 0, 0,
		12, 0, 0, 0,
		100, 0, 0, 0,
		5, 0, 0, 0,
		'h', 'i',
	}
	st, err := ParseStringTable(data, utf8Codec(t))
	require.NoError(t, err)

	s0, err := st.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "hi", s0)

	s1, err := st.Get(1)
	require.NoError(t, err)
	assert.Empty(t, s1)
}

func TestParseIDPathTable(t *testing.T) {
	t.Parallel()

	st := NewStringTable([]string{"Weapon/Sword.EQU", `Etc\Shield.equ`})
	data := testutil.IDTable(
		testutil.IDRecord{TagA: 2, ValA: 100, TagB: 7, ValB: 0},
		testutil.IDRecord{TagA: 7, ValA: 1, TagB: 2, ValB: 200},
	)

	tbl, err := ParseIDPathTable(data, "Equipment", st)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	p, ok := tbl.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, "equipment/weapon/sword.equ", p)

	p, ok = tbl.Lookup(200)
	require.True(t, ok)
	assert.Equal(t, "equipment/etc/shield.equ", p)

	_, ok = tbl.Lookup(300)
	assert.False(t, ok)

	var ids []uint32
	for id := range tbl.All() {
		ids = append(ids, id)
	}
	assert.Equal(t, []uint32{100, 200}, ids)
}

func TestParseIDPathTableRootBlob(t *testing.T) {
	t.Parallel()

	st := NewStringTable([]string{"etc/a.str"})
	data := testutil.IDTable(testutil.IDRecord{TagA: 2, ValA: 1, TagB: 7, ValB: 0})

	tbl, err := ParseIDPathTable(data, "", st)
	require.NoError(t, err)

	p, ok := tbl.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "etc/a.str", p)
}

func TestParseIDPathTableIgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	st := NewStringTable([]string{"x"})
	data := testutil.IDTable(testutil.IDRecord{TagA: 2, ValA: 1, TagB: 7, ValB: 0})
	data = append(data, 0xFF, 0xFF, 0xFF)

	tbl, err := ParseIDPathTable(data, "d", st)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	empty, err := ParseIDPathTable([]byte{0xB0}, "d", st)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestParseIDPathTableBadIndex(t *testing.T) {
	t.Parallel()

	st := NewStringTable([]string{"x"})
	data := testutil.IDTable(testutil.IDRecord{TagA: 2, ValA: 1, TagB: 7, ValB: 9})

	_, err := ParseIDPathTable(data, "d", st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pvftype.ErrCorruptEntry))
}

func TestParseKeyText(t *testing.T) {
	t.Parallel()

	tbl := ParseKeyText("header line\r\nname_1>Long Sword\r\nempty>\r\nurl>a>b\nname_1>Short Sword\n")

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "Short Sword", tbl.Get("name_1"))
	assert.Equal(t, Absent, tbl.Get("empty"))
	assert.Equal(t, "a>b", tbl.Get("url"))

	_, ok := tbl.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, Absent, tbl.Get("missing"))

	var keys []string
	for k := range tbl.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"name_1", "empty", "url"}, keys)
}

func TestParseKeyTextTableNormalizes(t *testing.T) {
	t.Parallel()

	codec, err := textenc.New("utf-8", textenc.ConverterFunc(func(s string) string {
		if s == "k>old" {
			return "k>new"
		}
		return s
	}))
	require.NoError(t, err)

	tbl := ParseKeyTextTable([]byte("k>old"), codec)
	assert.Equal(t, "new", tbl.Get("k"))
}

func TestParseKeyTextTablePadding(t *testing.T) {
	t.Parallel()

	codec, err := textenc.New("utf-8", textenc.Identity)
	require.NoError(t, err)

	tbl := ParseKeyTextTable([]byte("a>1\nb>22\x00\x00\x00"), codec)
	assert.Equal(t, "22", tbl.Get("b"))
	assert.Equal(t, 2, tbl.Len())
}
