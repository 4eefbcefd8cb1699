package byml

import (
	"encoding/binary"
	"fmt"
)

type ByteOrder uint8

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

const (
	MinVersion     = 2
	MaxVersion     = 7
	DefaultVersion = 2

	headerSize = 16
	maxUint24  = 1<<24 - 1
	maxDepth   = 512
)

var (
	magicBigEndian    = [2]byte{'B', 'Y'}
	magicLittleEndian = [2]byte{'Y', 'B'}
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	default:
		return fmt.Sprintf("byteorder(%d)", uint8(o))
	}
}

func (o ByteOrder) magic() [2]byte {
	if o == LittleEndian {
		return magicLittleEndian
	}
	return magicBigEndian
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Document is a parsed BYML file. Order and Version are recorded at parse
// time and reused by Serialize.
type Document struct {
	Root    *Map
	Order   ByteOrder
	Version uint16
}

func New(order ByteOrder, version uint16) *Document {
	return &Document{Root: NewMap(), Order: order, Version: version}
}

// Equal reports whether both documents have the same byte order, version and
// structurally equal trees.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Order == o.Order && d.Version == o.Version && Equal(d.Root, o.Root)
}

func (d *Document) Clone() *Document {
	return &Document{Root: d.Root.Clone(), Order: d.Order, Version: d.Version}
}

type nodeType byte

const (
	nodeString      nodeType = 0xA0
	nodeArray       nodeType = 0xC0
	nodeHash        nodeType = 0xC1
	nodeStringTable nodeType = 0xC2
	nodeBool        nodeType = 0xD0
	nodeInt         nodeType = 0xD1
	nodeFloat       nodeType = 0xD2
	nodeUint        nodeType = 0xD3
	nodeInt64       nodeType = 0xD4
	nodeUint64      nodeType = 0xD5
	nodeDouble      nodeType = 0xD6
	nodeNull        nodeType = 0xFF
)

func (t nodeType) String() string {
	switch t {
	case nodeString:
		return "string"
	case nodeArray:
		return "array"
	case nodeHash:
		return "hash"
	case nodeStringTable:
		return "string table"
	case nodeBool:
		return "bool"
	case nodeInt:
		return "int"
	case nodeFloat:
		return "float"
	case nodeUint:
		return "uint"
	case nodeInt64:
		return "int64"
	case nodeUint64:
		return "uint64"
	case nodeDouble:
		return "double"
	case nodeNull:
		return "null"
	default:
		return fmt.Sprintf("0x%02x", byte(t))
	}
}

func nodeTypeOf(v any) (nodeType, bool) {
	switch KindOf(v) {
	case KindNull:
		return nodeNull, true
	case KindBool:
		return nodeBool, true
	case KindInt:
		return nodeInt, true
	case KindUint:
		return nodeUint, true
	case KindInt64:
		return nodeInt64, true
	case KindUint64:
		return nodeUint64, true
	case KindFloat:
		return nodeFloat, true
	case KindDouble:
		return nodeDouble, true
	case KindString:
		return nodeString, true
	case KindArray:
		return nodeArray, true
	case KindMap:
		return nodeHash, true
	default:
		return 0, false
	}
}
