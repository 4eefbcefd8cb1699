package byml

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Serialize encodes doc using doc.Order and doc.Version.
func (d *Document) Serialize() ([]byte, error) {
	return Serialize(d)
}

// Serialize encodes doc using doc.Order and doc.Version. Hash keys and string
// values are pooled into sorted tables; hash entries are written in key order.
func Serialize(doc *Document) ([]byte, error) {
	version := doc.Version
	if version == 0 {
		version = DefaultVersion
	}
	if version < MinVersion || version > MaxVersion {
		return nil, &EncodeError{Msg: "unsupported version " + strconv.Itoa(int(version))}
	}
	if doc.Order != BigEndian && doc.Order != LittleEndian {
		return nil, &EncodeError{Msg: "invalid byte order " + doc.Order.String()}
	}
	root := doc.Root
	if root == nil {
		root = NewMap()
	}

	c := collector{keys: make(map[string]int), strings: make(map[string]int), active: make(map[any]bool)}
	if err := c.collect(root, ""); err != nil {
		return nil, err
	}

	w := &writer{
		bb:      bytesBuilder{Order: doc.Order.binary()},
		keys:    c.sortedKeys(),
		strings: c.sortedStrings(),
	}
	w.keyIdx = indexOf(w.keys)
	w.strIdx = indexOf(w.strings)

	m := doc.Order.magic()
	w.bb.AppendRaw(m[:])
	w.bb.AppendUint16(version)
	w.bb.Grow(12) // table and root offsets, patched below

	if len(w.keys) > 0 {
		w.bb.PutUint32(4, uint32(w.bb.Len()))
		w.stringTable(w.keys)
	} else {
		w.bb.PutUint32(4, 0)
	}
	if len(w.strings) > 0 {
		w.bb.PutUint32(8, uint32(w.bb.Len()))
		w.stringTable(w.strings)
	} else {
		w.bb.PutUint32(8, 0)
	}

	w.bb.PutUint32(12, uint32(w.bb.Len()))
	w.container(root)
	for len(w.pending) > 0 {
		item := w.pending[0]
		w.pending = w.pending[1:]
		w.bb.Align(4)
		w.bb.PutUint32(item.slot, uint32(w.bb.Len()))
		switch v := item.value.(type) {
		case int64:
			w.bb.AppendUint64(uint64(v))
		case uint64:
			w.bb.AppendUint64(v)
		case float64:
			w.bb.AppendUint64(math.Float64bits(v))
		default:
			w.container(v)
		}
	}
	w.bb.Align(4)
	if uint64(w.bb.Len()) > math.MaxUint32 {
		return nil, &EncodeError{Msg: "document exceeds 4 GiB"}
	}
	return w.bb.Buf, nil
}

type collector struct {
	keys    map[string]int
	strings map[string]int
	active  map[any]bool
	depth   int
}

func (c *collector) collect(v any, path string) error {
	switch v := v.(type) {
	case string:
		c.strings[v]++
	case []any:
		if len(v) > maxUint24 {
			return &EncodeError{Path: path, Msg: "array too long"}
		}
		if err := c.enter(path); err != nil {
			return err
		}
		defer c.leave()
		for i, item := range v {
			if err := c.collect(item, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	case *Map:
		if v.Len() > maxUint24 {
			return &EncodeError{Path: path, Msg: "hash too large"}
		}
		if c.active[v] {
			return &EncodeError{Path: path, Msg: "hash contains itself"}
		}
		if err := c.enter(path); err != nil {
			return err
		}
		c.active[v] = true
		defer func() {
			delete(c.active, v)
			c.leave()
		}()
		for k, item := range v.All() {
			c.keys[k]++
			if err := c.collect(item, path+"."+k); err != nil {
				return err
			}
		}
	default:
		if _, ok := nodeTypeOf(v); !ok {
			return &EncodeError{Path: path, Msg: "unsupported value type " + typeName(v)}
		}
	}
	return nil
}

func (c *collector) enter(path string) error {
	if c.depth >= maxDepth {
		return &EncodeError{Path: path, Msg: "nesting too deep"}
	}
	c.depth++
	return nil
}

func (c *collector) leave() {
	c.depth--
}

func (c *collector) sortedKeys() []string    { return sortedSet(c.keys) }
func (c *collector) sortedStrings() []string { return sortedSet(c.strings) }

func sortedSet(m map[string]int) []string {
	result := make([]string, 0, len(m))
	for s := range m {
		result = append(result, s)
	}
	slices.Sort(result)
	return result
}

func indexOf(items []string) map[string]int {
	m := make(map[string]int, len(items))
	for i, s := range items {
		m[s] = i
	}
	return m
}

type pendingValue struct {
	slot  int
	value any
}

type writer struct {
	bb      bytesBuilder
	keys    []string
	strings []string
	keyIdx  map[string]int
	strIdx  map[string]int
	pending []pendingValue
}

func (w *writer) stringTable(items []string) {
	start := w.bb.Len()
	w.bb.AppendByte(byte(nodeStringTable))
	w.bb.AppendUint24(uint32(len(items)))
	offsets := w.bb.Grow(4 * (len(items) + 1))
	for i, s := range items {
		w.bb.PutUint32(offsets+4*i, uint32(w.bb.Len()-start))
		w.bb.AppendCString(s)
	}
	w.bb.PutUint32(offsets+4*len(items), uint32(w.bb.Len()-start))
	w.bb.Align(4)
}

func (w *writer) container(v any) {
	switch v := v.(type) {
	case []any:
		w.bb.AppendByte(byte(nodeArray))
		w.bb.AppendUint24(uint32(len(v)))
		for _, item := range v {
			typ, _ := nodeTypeOf(item)
			w.bb.AppendByte(byte(typ))
		}
		w.bb.Align(4)
		for _, item := range v {
			w.slot(item)
		}
	case *Map:
		keys := v.Keys()
		slices.Sort(keys)
		w.bb.AppendByte(byte(nodeHash))
		w.bb.AppendUint24(uint32(len(keys)))
		for _, k := range keys {
			item, _ := v.Get(k)
			typ, _ := nodeTypeOf(item)
			w.bb.AppendUint24(uint32(w.keyIdx[k]))
			w.bb.AppendByte(byte(typ))
			w.slot(item)
		}
	default:
		panic("byml: container called with " + typeName(v))
	}
}

// slot writes the 32-bit value word for v, deferring out-of-line data.
func (w *writer) slot(v any) {
	switch v := v.(type) {
	case nil:
		w.bb.AppendUint32(0)
	case bool:
		if v {
			w.bb.AppendUint32(1)
		} else {
			w.bb.AppendUint32(0)
		}
	case int32:
		w.bb.AppendUint32(uint32(v))
	case uint32:
		w.bb.AppendUint32(v)
	case float32:
		w.bb.AppendUint32(math.Float32bits(v))
	case string:
		w.bb.AppendUint32(uint32(w.strIdx[v]))
	default:
		w.pending = append(w.pending, pendingValue{slot: w.bb.Len(), value: v})
		w.bb.AppendUint32(0)
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
