package hypostasis

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferenceSet(t *testing.T) {
	rs, err := ParseReferenceSet(" 1, 2,,3\n,4294967295,\n2 ")
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Len())
	assert.Equal(t, []uint32{1, 2, 3, 4294967295}, rs.IDs())
	assert.True(t, rs.Contains(4294967295))
	assert.False(t, rs.Contains(4))
}

func TestParseReferenceSet_Empty(t *testing.T) {
	rs, err := ParseReferenceSet(" \n ")
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestParseReferenceSet_Errors(t *testing.T) {
	for _, tt := range []struct {
		input string
		msg   string
	}{
		{"1,x,3", `item 1 ("x")`},
		{"1,4294967296", `item 1 ("4294967296")`},
		{"-1", `item 0 ("-1")`},
		{"0x10", `item 0 ("0x10")`},
		{"1 2", `item 0 ("1 2")`},
	} {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseReferenceSet(tt.input)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestReadReferenceSet(t *testing.T) {
	rs, err := ReadReferenceSet(strings.NewReader("10,20,30"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 20, 30}, rs.IDs())
}

func TestLoadReferenceSet(t *testing.T) {
	dir := t.TempDir()
	path := writeBytes(t, dir, "hashes.txt", []byte("7,8,9\n"))

	rs, err := LoadReferenceSet(path)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Len())

	_, err = LoadReferenceSet(filepath.Join(dir, "missing.txt"))
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := writeBytes(t, dir, "bad.txt", []byte("1,two"))
	_, err = LoadReferenceSet(bad)
	assert.ErrorContains(t, err, "bad.txt")
}

func TestReferenceSet_Fingerprint(t *testing.T) {
	a := NewReferenceSet(3, 1, 2)
	b := must(ParseReferenceSet("1,2,3,3"))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), NewReferenceSet(1, 2).Fingerprint())
}

func TestReferenceSet_Nil(t *testing.T) {
	var rs *ReferenceSet
	assert.False(t, rs.Contains(1))
	assert.Equal(t, 0, rs.Len())
	assert.Nil(t, rs.IDs())
}
