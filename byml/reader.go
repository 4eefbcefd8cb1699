package byml

import (
	"math"
)

type parser struct {
	d       byteDecoder
	keys    []string
	strings []string
	active  map[int]bool
	depth   int
}

// Parse decodes a BYML document. The byte order is taken from the magic.
func Parse(data []byte) (*Document, error) {
	if len(data) < headerSize {
		return nil, decodeErrf(data, 0, nil, "truncated header: %d bytes, %d wanted", len(data), headerSize)
	}

	doc := &Document{}
	switch [2]byte(data[:2]) {
	case magicBigEndian:
		doc.Order = BigEndian
	case magicLittleEndian:
		doc.Order = LittleEndian
	default:
		return nil, decodeErrf(data, 0, nil, "unknown magic %q", data[:2])
	}

	p := &parser{
		d:      byteDecoder{Buf: data, Order: doc.Order.binary()},
		active: make(map[int]bool),
	}
	doc.Version, _ = p.d.Uint16(2)
	if doc.Version < MinVersion || doc.Version > MaxVersion {
		return nil, decodeErrf(data, 2, nil, "unsupported version %d", doc.Version)
	}

	keyOff, _ := p.d.Uint32(4)
	strOff, _ := p.d.Uint32(8)
	rootOff, _ := p.d.Uint32(12)

	var err error
	if p.keys, err = p.stringTable(int(keyOff)); err != nil {
		return nil, err
	}
	if p.strings, err = p.stringTable(int(strOff)); err != nil {
		return nil, err
	}

	if rootOff == 0 {
		doc.Root = NewMap()
		return doc, nil
	}
	typ, err := p.d.Uint8(int(rootOff))
	if err != nil {
		return nil, err
	}
	if nodeType(typ) != nodeHash {
		return nil, decodeErrf(data, int(rootOff), nil, "root node is %v, wanted hash", nodeType(typ))
	}
	root, err := p.container(nodeHash, int(rootOff))
	if err != nil {
		return nil, err
	}
	doc.Root = root.(*Map)
	return doc, nil
}

func (p *parser) stringTable(off int) ([]string, error) {
	if off == 0 {
		return nil, nil
	}
	typ, err := p.d.Uint8(off)
	if err != nil {
		return nil, err
	}
	if nodeType(typ) != nodeStringTable {
		return nil, decodeErrf(p.d.Buf, off, nil, "expected string table, found %v", nodeType(typ))
	}
	n, err := p.d.Uint24(off + 1)
	if err != nil {
		return nil, err
	}
	if err := p.d.need(off+4, 4*(int(n)+1)); err != nil {
		return nil, err
	}

	result := make([]string, n)
	for i := range result {
		start, _ := p.d.Uint32(off + 4 + 4*i)
		end, _ := p.d.Uint32(off + 4 + 4*(i+1))
		if end < start {
			return nil, decodeErrf(p.d.Buf, off+4+4*i, nil, "string table entry %d ends before it starts", i)
		}
		s, err := p.d.CString(off+int(start), off+int(end))
		if err != nil {
			return nil, err
		}
		result[i] = s
	}
	return result, nil
}

func (p *parser) container(typ nodeType, off int) (any, error) {
	if p.active[off] {
		return nil, decodeErrf(p.d.Buf, off, nil, "container cycle")
	}
	if p.depth >= maxDepth {
		return nil, decodeErrf(p.d.Buf, off, nil, "nesting deeper than %d", maxDepth)
	}
	actual, err := p.d.Uint8(off)
	if err != nil {
		return nil, err
	}
	if nodeType(actual) != typ {
		return nil, decodeErrf(p.d.Buf, off, nil, "node type is %v, wanted %v", nodeType(actual), typ)
	}
	n, err := p.d.Uint24(off + 1)
	if err != nil {
		return nil, err
	}

	p.active[off] = true
	p.depth++
	defer func() {
		delete(p.active, off)
		p.depth--
	}()

	if typ == nodeArray {
		return p.array(off, int(n))
	}
	return p.hash(off, int(n))
}

func (p *parser) array(off, n int) (any, error) {
	typesOff := off + 4
	valuesOff := align4(typesOff + n)
	if err := p.d.need(valuesOff, 4*n); err != nil {
		return nil, err
	}
	result := make([]any, n)
	for i := range result {
		typ := nodeType(p.d.Buf[typesOff+i])
		raw, _ := p.d.Uint32(valuesOff + 4*i)
		v, err := p.value(typ, raw, valuesOff+4*i)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (p *parser) hash(off, n int) (any, error) {
	if err := p.d.need(off+4, 8*n); err != nil {
		return nil, err
	}
	result := NewMap()
	for i := 0; i < n; i++ {
		e := off + 4 + 8*i
		idx, _ := p.d.Uint24(e)
		if int(idx) >= len(p.keys) {
			return nil, decodeErrf(p.d.Buf, e, nil, "key index %d out of range (%d keys)", idx, len(p.keys))
		}
		key := p.keys[idx]
		if _, dup := result.Get(key); dup {
			return nil, decodeErrf(p.d.Buf, e, nil, "duplicate key %q", key)
		}
		typ := nodeType(p.d.Buf[e+3])
		raw, _ := p.d.Uint32(e + 4)
		v, err := p.value(typ, raw, e+4)
		if err != nil {
			return nil, err
		}
		result.Set(key, v)
	}
	return result, nil
}

// value decodes the 32-bit slot at slotOff holding raw, interpreted per typ.
func (p *parser) value(typ nodeType, raw uint32, slotOff int) (any, error) {
	switch typ {
	case nodeString:
		if int(raw) >= len(p.strings) {
			return nil, decodeErrf(p.d.Buf, slotOff, nil, "string index %d out of range (%d strings)", raw, len(p.strings))
		}
		return p.strings[raw], nil
	case nodeBool:
		return raw != 0, nil
	case nodeInt:
		return int32(raw), nil
	case nodeUint:
		return raw, nil
	case nodeFloat:
		return math.Float32frombits(raw), nil
	case nodeNull:
		return nil, nil
	case nodeInt64, nodeUint64, nodeDouble:
		w, err := p.d.Uint64(int(raw))
		if err != nil {
			return nil, err
		}
		switch typ {
		case nodeInt64:
			return int64(w), nil
		case nodeUint64:
			return w, nil
		default:
			return math.Float64frombits(w), nil
		}
	case nodeArray, nodeHash:
		return p.container(typ, int(raw))
	default:
		return nil, decodeErrf(p.d.Buf, slotOff, nil, "unsupported node type %v", typ)
	}
}

func align4(n int) int {
	return (n + 3) &^ 3
}
