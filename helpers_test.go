package hypostasis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NiceneNerd/hypostasis/byml"
	"github.com/NiceneNerd/hypostasis/yaz0"
	"github.com/stretchr/testify/require"
)

// obj builds a map from alternating keys and values.
func obj(kv ...any) *byml.Map {
	if len(kv)%2 != 0 {
		panic("obj: odd number of arguments")
	}
	m := byml.NewMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func link(dest uint32) *byml.Map {
	return obj("DefinitionName", "BasicSig", "DestUnitHashId", dest, "Parameters", nil)
}

func links(dests ...uint32) []any {
	result := make([]any, len(dests))
	for i, d := range dests {
		result[i] = link(d)
	}
	return result
}

func unitDoc(entries ...any) *byml.Document {
	doc := byml.New(byml.BigEndian, 2)
	doc.Root.Set("FilePath", "/MainField/A-1/A-1_Static.smubin")
	doc.Root.Set("Objs", entries)
	doc.Root.Set("Rails", []any{})
	return doc
}

func objsOf(t testing.TB, doc *byml.Document) []*byml.Map {
	t.Helper()
	raw, ok := doc.Root.Get("Objs")
	require.True(t, ok)
	var result []*byml.Map
	for _, item := range raw.([]any) {
		result = append(result, item.(*byml.Map))
	}
	return result
}

func field(t testing.TB, m *byml.Map, key string) any {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing %s in %s", key, byml.Dump(m))
	return v
}

func linkDest(t testing.TB, entry *byml.Map, j int) uint32 {
	t.Helper()
	ls := field(t, entry, "LinksToObj").([]any)
	return field(t, ls[j].(*byml.Map), "DestUnitHashId").(uint32)
}

func checksumOf(t testing.TB, entry *byml.Map) uint32 {
	t.Helper()
	id, err := EntryChecksum(entry)
	require.NoError(t, err)
	return id
}

// unitBytes returns doc as a compressed map unit.
func unitBytes(t testing.TB, doc *byml.Document) []byte {
	t.Helper()
	raw, err := doc.Serialize()
	require.NoError(t, err)
	return yaz0.Compress(raw)
}

func writeUnit(t testing.TB, dir, name string, doc *byml.Document) string {
	t.Helper()
	return writeBytes(t, dir, name, unitBytes(t, doc))
}

func writeBytes(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func readUnit(t testing.TB, path string) *byml.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	raw, err := yaz0.Decompress(data)
	require.NoError(t, err)
	doc, err := byml.Parse(raw)
	require.NoError(t, err)
	return doc
}

func readBytes(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
