package hypostasis

import (
	"cmp"
	"fmt"
	"hash/crc32"
	"slices"

	"github.com/NiceneNerd/hypostasis/byml"
)

const (
	keyObjs       = "Objs"
	keyHashID     = "HashId"
	keyLinksToObj = "LinksToObj"
	keyDestHashID = "DestUnitHashId"
)

// RemapTable maps old identifiers to the new ones computed for one document.
// Several old identifiers may map to the same new one.
type RemapTable map[uint32]uint32

type Pair struct {
	Old uint32 `msgpack:"o" json:"old" yaml:"old"`
	New uint32 `msgpack:"n" json:"new" yaml:"new"`
}

func (p Pair) String() string {
	return fmt.Sprintf("0x%08x -> 0x%08x", p.Old, p.New)
}

func comparePairs(a, b Pair) int {
	if c := cmp.Compare(a.Old, b.Old); c != 0 {
		return c
	}
	return cmp.Compare(a.New, b.New)
}

// Pairs returns the table's entries sorted by old identifier.
func (t RemapTable) Pairs() []Pair {
	result := make([]Pair, 0, len(t))
	for o, n := range t {
		result = append(result, Pair{o, n})
	}
	slices.SortFunc(result, comparePairs)
	return result
}

// Remapper assigns content-derived identifiers to object entries whose HashId
// is not in Refs and patches the links that point at them.
//
// By default the entry's own HashId is rewritten too, so that an object and
// the links targeting it agree. KeepOwnID leaves the entry's HashId alone and
// only patches links.
type Remapper struct {
	Refs      *ReferenceSet
	KeepOwnID bool

	checksum func([]byte) uint32
}

// Remap runs a default Remapper over doc.
func Remap(doc *byml.Document, refs *ReferenceSet) (RemapTable, error) {
	r := &Remapper{Refs: refs}
	return r.Remap(doc)
}

type remapTarget struct {
	entry *byml.Map
	old   uint32
}

// Remap mutates doc in place and returns the substitutions it applied. The
// document is left untouched when an error is returned.
func (r *Remapper) Remap(doc *byml.Document) (RemapTable, error) {
	if r.Refs == nil {
		return nil, ErrNoReferenceSet
	}
	if doc == nil || doc.Root == nil {
		return nil, schemaErrf(-1, -1, "", "document has no root")
	}
	raw, ok := doc.Root.Get(keyObjs)
	if !ok {
		return nil, schemaErrf(-1, -1, "", "missing")
	}
	objs, ok := raw.([]any)
	if !ok {
		return nil, schemaErrf(-1, -1, "", "expected array, found %v", byml.KindOf(raw))
	}

	entries := make([]*byml.Map, len(objs))
	for i, item := range objs {
		entry, ok := item.(*byml.Map)
		if !ok {
			return nil, schemaErrf(i, -1, "", "expected hash, found %v", byml.KindOf(item))
		}
		entries[i] = entry
	}

	// Validate every link before anything is changed.
	links := make([][]*byml.Map, len(entries))
	for i, entry := range entries {
		var err error
		if links[i], err = entryLinks(i, entry); err != nil {
			return nil, err
		}
	}

	checksum := r.checksum
	if checksum == nil {
		checksum = crc32.ChecksumIEEE
	}

	table := make(RemapTable)
	var targets []remapTarget
	for i, entry := range entries {
		id, ok := entryHashID(entry)
		if !ok || r.Refs.Contains(id) {
			continue
		}
		targets = append(targets, remapTarget{entry, id})
		if _, seen := table[id]; seen {
			continue
		}
		data, err := CanonicalEncoding(entry)
		if err != nil {
			return nil, &SchemaError{Entry: i, Link: -1, Msg: "cannot encode entry", Err: err}
		}
		table[id] = checksum(data)
	}
	if len(table) == 0 {
		return table, nil
	}

	for _, ls := range links {
		for _, link := range ls {
			dest, _ := link.Get(keyDestHashID)
			if n, ok := table[dest.(uint32)]; ok {
				link.Set(keyDestHashID, n)
			}
		}
	}
	if !r.KeepOwnID {
		for _, t := range targets {
			t.entry.Set(keyHashID, table[t.old])
		}
	}
	return table, nil
}

func entryHashID(entry *byml.Map) (uint32, bool) {
	v, ok := entry.Get(keyHashID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}

func entryLinks(i int, entry *byml.Map) ([]*byml.Map, error) {
	raw, ok := entry.Get(keyLinksToObj)
	if !ok {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, schemaErrf(i, -1, keyLinksToObj, "expected array, found %v", byml.KindOf(raw))
	}
	result := make([]*byml.Map, len(arr))
	for j, item := range arr {
		link, ok := item.(*byml.Map)
		if !ok {
			return nil, schemaErrf(i, j, "", "expected hash, found %v", byml.KindOf(item))
		}
		dest, ok := link.Get(keyDestHashID)
		if !ok {
			return nil, schemaErrf(i, j, keyDestHashID, "missing")
		}
		if _, ok := dest.(uint32); !ok {
			return nil, schemaErrf(i, j, keyDestHashID, "expected uint, found %v", byml.KindOf(dest))
		}
		result[j] = link
	}
	return result, nil
}

// Collision describes a new identifier that is not unique: either several old
// identifiers map to it, or it is already a reference identifier.
type Collision struct {
	New       uint32   `json:"new" yaml:"new"`
	Olds      []uint32 `json:"olds" yaml:"olds"`
	Reference bool     `json:"reference,omitempty" yaml:"reference,omitempty"`
}

func (c Collision) String() string {
	s := fmt.Sprintf("0x%08x <- %d ids", c.New, len(c.Olds))
	if c.Reference {
		s += " (reference id)"
	}
	return s
}

// Collisions lists the new identifiers in table that clash, sorted by new id.
// Collisions are warnings; the table is valid either way.
func Collisions(table RemapTable, refs *ReferenceSet) []Collision {
	byNew := make(map[uint32][]uint32)
	for o, n := range table {
		byNew[n] = append(byNew[n], o)
	}
	var result []Collision
	for n, olds := range byNew {
		ref := refs.Contains(n)
		if len(olds) < 2 && !ref {
			continue
		}
		slices.Sort(olds)
		result = append(result, Collision{New: n, Olds: olds, Reference: ref})
	}
	slices.SortFunc(result, func(a, b Collision) int { return cmp.Compare(a.New, b.New) })
	return result
}
