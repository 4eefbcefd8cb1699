package hypostasis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"content/Map/MainField/A-1/A-1_Static.smubin",
		"content/Map/MainField/A-1/A-1_Dynamic.smubin",
		"content/Map/MainField/J-8/J-8_Static.smubin",
		"content/Map/MainField/A-1/A-1_Static.smubin.bak",
		"content/Map/MainField/A-1/Static.smubin",
		"content/Map/MainField/A-1/AB-1_Static.smubin",
		"content/Map/MainField/Static.mubin",
		"content/Map/CDungeon/Dungeon000/Dungeon000_Static.smubin",
	} {
		writeBytes(t, dir, name, []byte("x"))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content/Map/MainField/B-2/B-2_Dir.smubin"), 0o755))

	got, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "content/Map/MainField/A-1/A-1_Dynamic.smubin"),
		filepath.Join(dir, "content/Map/MainField/A-1/A-1_Static.smubin"),
		filepath.Join(dir, "content/Map/MainField/J-8/J-8_Static.smubin"),
	}, got)

	got, err = Discover(dir, "**/*_Static.smubin")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestDiscover_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir, "[")
	assert.ErrorContains(t, err, "invalid pattern")

	_, err = Discover(filepath.Join(dir, "missing"), "")
	var ioe *IOError
	assert.ErrorAs(t, err, &ioe)

	file := writeBytes(t, dir, "f", []byte("x"))
	_, err = Discover(file, "")
	assert.ErrorContains(t, err, "not a directory")
}
