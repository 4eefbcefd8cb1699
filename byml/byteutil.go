package byml

import (
	"encoding/binary"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 64 {
			c = 64
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

// bytesBuilder appends fixed-width integers in the document's byte order.
type bytesBuilder struct {
	Buf   []byte
	Order binary.ByteOrder
}

func (bb *bytesBuilder) Len() int {
	return len(bb.Buf)
}

func (bb *bytesBuilder) Grow(n int) (off int) {
	off, bb.Buf = grow(bb.Buf, n)
	return
}

func (bb *bytesBuilder) AppendRaw(b []byte) {
	off := bb.Grow(len(b))
	copy(bb.Buf[off:], b)
}

func (bb *bytesBuilder) AppendByte(v byte) {
	off := bb.Grow(1)
	bb.Buf[off] = v
}

func (bb *bytesBuilder) AppendUint16(v uint16) {
	off := bb.Grow(2)
	bb.Order.PutUint16(bb.Buf[off:], v)
}

func (bb *bytesBuilder) AppendUint24(v uint32) {
	off := bb.Grow(3)
	bb.PutUint24(off, v)
}

func (bb *bytesBuilder) AppendUint32(v uint32) {
	off := bb.Grow(4)
	bb.Order.PutUint32(bb.Buf[off:], v)
}

func (bb *bytesBuilder) AppendUint64(v uint64) {
	off := bb.Grow(8)
	bb.Order.PutUint64(bb.Buf[off:], v)
}

// AppendCString appends s followed by a NUL terminator.
func (bb *bytesBuilder) AppendCString(s string) {
	off := bb.Grow(len(s) + 1)
	copy(bb.Buf[off:], s)
	bb.Buf[off+len(s)] = 0
}

func (bb *bytesBuilder) PutUint24(off int, v uint32) {
	if v > maxUint24 {
		panic("uint24 overflow")
	}
	if bb.Order == binary.BigEndian {
		bb.Buf[off+0] = byte(v >> 16)
		bb.Buf[off+1] = byte(v >> 8)
		bb.Buf[off+2] = byte(v)
	} else {
		bb.Buf[off+0] = byte(v)
		bb.Buf[off+1] = byte(v >> 8)
		bb.Buf[off+2] = byte(v >> 16)
	}
}

func (bb *bytesBuilder) PutUint32(off int, v uint32) {
	bb.Order.PutUint32(bb.Buf[off:], v)
}

// Align pads with zeroes up to a multiple of n.
func (bb *bytesBuilder) Align(n int) {
	if rem := len(bb.Buf) % n; rem != 0 {
		off := bb.Grow(n - rem)
		clear(bb.Buf[off:])
	}
}

// byteDecoder reads fixed-width integers at absolute offsets with bounds checks.
type byteDecoder struct {
	Buf   []byte
	Order binary.ByteOrder
}

func (d *byteDecoder) need(off, n int) error {
	if off < 0 || n < 0 || off > len(d.Buf) || len(d.Buf)-off < n {
		return decodeErrf(d.Buf, off, nil, "not enough data: %d bytes wanted, buffer is %d bytes", n, len(d.Buf))
	}
	return nil
}

func (d *byteDecoder) Uint8(off int) (byte, error) {
	if err := d.need(off, 1); err != nil {
		return 0, err
	}
	return d.Buf[off], nil
}

func (d *byteDecoder) Uint16(off int) (uint16, error) {
	if err := d.need(off, 2); err != nil {
		return 0, err
	}
	return d.Order.Uint16(d.Buf[off:]), nil
}

func (d *byteDecoder) Uint24(off int) (uint32, error) {
	if err := d.need(off, 3); err != nil {
		return 0, err
	}
	b := d.Buf[off : off+3]
	if d.Order == binary.BigEndian {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func (d *byteDecoder) Uint32(off int) (uint32, error) {
	if err := d.need(off, 4); err != nil {
		return 0, err
	}
	return d.Order.Uint32(d.Buf[off:]), nil
}

func (d *byteDecoder) Uint64(off int) (uint64, error) {
	if err := d.need(off, 8); err != nil {
		return 0, err
	}
	return d.Order.Uint64(d.Buf[off:]), nil
}

// CString returns the NUL-terminated string starting at off, which must end
// before limit.
func (d *byteDecoder) CString(off, limit int) (string, error) {
	limit = min(limit, len(d.Buf))
	if off < 0 || off >= limit {
		return "", decodeErrf(d.Buf, off, nil, "string offset out of range (limit 0x%x)", limit)
	}
	for i := off; i < limit; i++ {
		if d.Buf[i] == 0 {
			return string(d.Buf[off:i]), nil
		}
	}
	return "", decodeErrf(d.Buf, off, nil, "unterminated string")
}
