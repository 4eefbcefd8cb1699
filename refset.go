package hypostasis

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ReferenceSet is the read-only set of identifiers known to be valid. Objects
// whose HashId is in the set are never remapped.
type ReferenceSet struct {
	ids map[uint32]struct{}
}

func NewReferenceSet(ids ...uint32) *ReferenceSet {
	rs := &ReferenceSet{ids: make(map[uint32]struct{}, len(ids))}
	for _, id := range ids {
		rs.ids[id] = struct{}{}
	}
	return rs
}

// ParseReferenceSet parses a comma-separated list of decimal uint32 values.
// Surrounding whitespace and empty items are ignored.
func ParseReferenceSet(s string) (*ReferenceSet, error) {
	rs := &ReferenceSet{ids: make(map[uint32]struct{})}
	for i, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseUint(item, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("reference set item %d (%q): %w", i, item, err)
		}
		rs.ids[uint32(id)] = struct{}{}
	}
	return rs, nil
}

func ReadReferenceSet(r io.Reader) (*ReferenceSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseReferenceSet(string(data))
}

func LoadReferenceSet(path string) (*ReferenceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read reference set", Path: path, Err: err}
	}
	rs, err := ParseReferenceSet(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

func (rs *ReferenceSet) Contains(id uint32) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.ids[id]
	return ok
}

func (rs *ReferenceSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.ids)
}

// IDs returns the members in ascending order.
func (rs *ReferenceSet) IDs() []uint32 {
	if rs == nil {
		return nil
	}
	result := make([]uint32, 0, len(rs.ids))
	for id := range rs.ids {
		result = append(result, id)
	}
	slices.Sort(result)
	return result
}

// Fingerprint identifies the set's contents independently of input order.
func (rs *ReferenceSet) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [4]byte
	for _, id := range rs.IDs() {
		binary.BigEndian.PutUint32(buf[:], id)
		h.Write(buf[:])
	}
	return h.Sum64()
}
