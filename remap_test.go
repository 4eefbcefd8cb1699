package hypostasis

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/NiceneNerd/hypostasis/byml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemap_LinkedObject(t *testing.T) {
	foreign := obj("HashId", uint32(5), "UnitConfigName", "Obj_TreasureChest")
	want := checksumOf(t, foreign)
	doc := unitDoc(
		foreign,
		obj("HashId", uint32(9), "LinksToObj", links(5), "UnitConfigName", "Obj_Switch"),
	)

	table, err := Remap(doc, NewReferenceSet(9))
	require.NoError(t, err)
	assert.Equal(t, RemapTable{5: want}, table)

	objs := objsOf(t, doc)
	assert.Equal(t, want, linkDest(t, objs[1], 0))
	assert.Equal(t, want, field(t, objs[0], "HashId"), "own HashId follows the links")
	assert.Equal(t, uint32(9), field(t, objs[1], "HashId"))
}

func TestRemap_KeepOwnID(t *testing.T) {
	foreign := obj("HashId", uint32(5), "UnitConfigName", "Obj_TreasureChest")
	want := checksumOf(t, foreign)
	doc := unitDoc(
		foreign,
		obj("HashId", uint32(9), "LinksToObj", links(5)),
	)

	r := &Remapper{Refs: NewReferenceSet(9), KeepOwnID: true}
	table, err := r.Remap(doc)
	require.NoError(t, err)
	assert.Equal(t, RemapTable{5: want}, table)

	objs := objsOf(t, doc)
	assert.Equal(t, want, linkDest(t, objs[1], 0))
	assert.Equal(t, uint32(5), field(t, objs[0], "HashId"), "own HashId is left stale")
}

func TestRemap_ReferenceIDsAreNeverRemapped(t *testing.T) {
	doc := unitDoc(
		obj("HashId", uint32(1), "LinksToObj", links(2)),
		obj("HashId", uint32(2), "LinksToObj", links(1, 2)),
	)
	before := doc.Clone()

	table, err := Remap(doc, NewReferenceSet(1, 2))
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.True(t, before.Equal(doc))
}

func TestRemap_LinkConsistency(t *testing.T) {
	a := obj("HashId", uint32(0x100), "UnitConfigName", "A")
	b := obj("HashId", uint32(0x200), "UnitConfigName", "B")
	newA, newB := checksumOf(t, a), checksumOf(t, b)
	doc := unitDoc(
		a,
		b,
		obj("HashId", uint32(1), "LinksToObj", links(0x100, 1, 0x200, 0x999, 0x100)),
	)
	before := doc.Clone()

	table, err := Remap(doc, NewReferenceSet(1))
	require.NoError(t, err)
	assert.Equal(t, RemapTable{0x100: newA, 0x200: newB}, table)

	afterLinks := field(t, objsOf(t, doc)[2], "LinksToObj").([]any)
	beforeLinks := field(t, objsOf(t, before)[2], "LinksToObj").([]any)
	wantDests := []uint32{newA, 1, newB, 0x999, newA}
	for j := range afterLinks {
		after := afterLinks[j].(*byml.Map)
		prev := beforeLinks[j].(*byml.Map)
		assert.Equal(t, wantDests[j], field(t, after, "DestUnitHashId"), "link %d", j)

		// Only DestUnitHashId may change.
		prev.Set("DestUnitHashId", wantDests[j])
		assert.True(t, byml.Equal(prev, after), "link %d: %s", j, byml.Dump(after))
	}
}

func TestRemap_ChecksumIsContentDerived(t *testing.T) {
	mk := func() *byml.Map {
		return obj("HashId", uint32(77), "Translate", []any{float32(1), float32(2), float32(3)}, "UnitConfigName", "X")
	}
	first := unitDoc(mk(), obj("HashId", uint32(1)))
	second := unitDoc(obj("HashId", uint32(1)), obj("HashId", uint32(2), "UnitConfigName", "Other"), mk())
	refs := NewReferenceSet(1)

	t1, err := Remap(first, refs)
	require.NoError(t, err)
	t2, err := Remap(second, refs)
	require.NoError(t, err)
	assert.Equal(t, t1[77], t2[77], "position in the array must not matter")
	assert.Equal(t, checksumOf(t, mk()), checksumOf(t, mk()))
}

func TestRemap_Collision(t *testing.T) {
	doc := unitDoc(
		obj("HashId", uint32(1), "UnitConfigName", "A"),
		obj("HashId", uint32(2), "UnitConfigName", "B"),
		obj("HashId", uint32(3), "LinksToObj", links(1, 2)),
	)
	refs := NewReferenceSet(3)
	r := &Remapper{Refs: refs, checksum: func([]byte) uint32 { return 0xDEADBEEF }}

	table, err := r.Remap(doc)
	require.NoError(t, err)
	assert.Equal(t, RemapTable{1: 0xDEADBEEF, 2: 0xDEADBEEF}, table)
	assert.Equal(t, []Pair{{1, 0xDEADBEEF}, {2, 0xDEADBEEF}}, table.Pairs())

	objs := objsOf(t, doc)
	assert.Equal(t, uint32(0xDEADBEEF), linkDest(t, objs[2], 0))
	assert.Equal(t, uint32(0xDEADBEEF), linkDest(t, objs[2], 1))

	assert.Equal(t, []Collision{{New: 0xDEADBEEF, Olds: []uint32{1, 2}}}, Collisions(table, refs))
}

func TestCollisions_ReferenceID(t *testing.T) {
	refs := NewReferenceSet(10)
	table := RemapTable{1: 10, 2: 20}
	assert.Equal(t, []Collision{{New: 10, Olds: []uint32{1}, Reference: true}}, Collisions(table, refs))
	assert.Empty(t, Collisions(RemapTable{1: 11, 2: 12}, refs))
}

func TestRemap_DuplicateForeignIDs(t *testing.T) {
	first := obj("HashId", uint32(7), "UnitConfigName", "First")
	want := checksumOf(t, first)
	doc := unitDoc(
		first,
		obj("HashId", uint32(7), "UnitConfigName", "Second"),
		obj("HashId", uint32(1), "LinksToObj", links(7)),
	)

	table, err := Remap(doc, NewReferenceSet(1))
	require.NoError(t, err)
	assert.Equal(t, RemapTable{7: want}, table)

	objs := objsOf(t, doc)
	assert.Equal(t, want, field(t, objs[0], "HashId"))
	assert.Equal(t, want, field(t, objs[1], "HashId"))
	assert.Equal(t, want, linkDest(t, objs[2], 0))
}

func TestRemap_UnusableHashIDIsSkipped(t *testing.T) {
	doc := unitDoc(
		obj("UnitConfigName", "NoID"),
		obj("HashId", int32(5)),
		obj("HashId", "5"),
	)
	before := doc.Clone()

	table, err := Remap(doc, NewReferenceSet())
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.True(t, before.Equal(doc))
}

func TestRemap_SchemaErrors(t *testing.T) {
	valid := func() *byml.Map { return obj("HashId", uint32(5), "UnitConfigName", "Valid") }
	tests := []struct {
		name  string
		doc   *byml.Document
		entry int
		link  int
		msg   string
	}{
		{"no objs", byml.New(byml.BigEndian, 2), -1, -1, "Objs: missing"},
		{"objs not array", func() *byml.Document {
			d := byml.New(byml.BigEndian, 2)
			d.Root.Set("Objs", obj())
			return d
		}(), -1, -1, "Objs: expected array, found hash"},
		{"entry not hash", unitDoc(valid(), uint32(3)), 1, -1, "Objs[1]: expected hash, found uint"},
		{"links not array", unitDoc(valid(), obj("HashId", uint32(1), "LinksToObj", "x")), 1, -1, "Objs[1].LinksToObj: expected array, found string"},
		{"link not hash", unitDoc(valid(), obj("HashId", uint32(1), "LinksToObj", []any{link(5), int32(1)})), 1, 1, "Objs[1].LinksToObj[1]: expected hash, found int"},
		{"dest missing", unitDoc(obj("HashId", uint32(1), "LinksToObj", []any{obj("DefinitionName", "BasicSig")}), valid()), 0, 0, "Objs[0].LinksToObj[0].DestUnitHashId: missing"},
		{"dest wrong type", unitDoc(valid(), obj("LinksToObj", []any{obj("DestUnitHashId", int32(5))})), 1, 0, "Objs[1].LinksToObj[0].DestUnitHashId: expected uint, found int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.doc.Clone()
			_, err := Remap(tt.doc, NewReferenceSet(1))
			var se *SchemaError
			require.True(t, errors.As(err, &se), "err = %v, wanted *SchemaError", err)
			assert.Equal(t, tt.entry, se.Entry)
			assert.Equal(t, tt.link, se.Link)
			assert.Equal(t, tt.msg, err.Error())
			assert.True(t, before.Equal(tt.doc), "document must not change on error")
		})
	}
}

func TestRemap_NoReferenceSet(t *testing.T) {
	_, err := Remap(unitDoc(), nil)
	assert.ErrorIs(t, err, ErrNoReferenceSet)
}

func TestCanonicalEncoding(t *testing.T) {
	data, err := CanonicalEncoding(obj("HashId", uint32(5)))
	require.NoError(t, err)
	assert.Equal(t, "81a6486173684964ce00000005", hex.EncodeToString(data))

	t.Run("key order", func(t *testing.T) {
		a := must(CanonicalEncoding(obj("A", int32(1), "B", "x")))
		b := must(CanonicalEncoding(obj("B", "x", "A", int32(1))))
		assert.Equal(t, a, b)
	})
	t.Run("width", func(t *testing.T) {
		encs := map[string]bool{}
		for _, v := range []any{int32(7), uint32(7), int64(7), uint64(7), float32(7), float64(7)} {
			encs[hex.EncodeToString(must(CanonicalEncoding(obj("V", v))))] = true
		}
		assert.Len(t, encs, 6)
	})
	t.Run("fixed size ints", func(t *testing.T) {
		data := must(CanonicalEncoding(obj("V", int32(1))))
		assert.Equal(t, "81a156d200000001", hex.EncodeToString(data))
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := CanonicalEncoding(obj("V", 1))
		assert.ErrorContains(t, err, "unsupported value type int")
	})
}

func TestPair_String(t *testing.T) {
	assert.Equal(t, "0x00000005 -> 0xdeadbeef", Pair{5, 0xDEADBEEF}.String())
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
