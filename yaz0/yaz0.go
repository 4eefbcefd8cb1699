// Package yaz0 implements the Yaz0 container used for compressed game data.
//
// File format:
//
//	header = magic:"Yaz0" size:u32be align:u32be reserved:u32
//	body   = group*
//	group  = flags:u8 chunk{8}
//	chunk  = literal:u8                         (flag bit 1)
//	       | nd:u8 dd:u8                        (flag bit 0, n = nd>>4 != 0, len = n+2)
//	       | nd:u8 dd:u8 ext:u8                 (flag bit 0, n == 0, len = ext+0x12)
//
// Flag bits are consumed most significant first. A back-reference copies len
// bytes starting dist = ((nd&0xF)<<8 | dd) + 1 bytes before the current
// output position; source and destination may overlap.
package yaz0

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	HeaderSize = 16

	minMatch    = 3
	maxMatch    = 0xFF + 0x12
	shortLimit  = 0x12
	windowSize  = 0x1000
	hashBits    = 15
	maxChain    = 128
	niceMatch   = 0x80
	noPosition  = -1
	groupChunks = 8
)

var magic = []byte("Yaz0")

type FormatError struct {
	Off int
	Msg string
}

func formatErrf(off int, format string, args ...any) error {
	return &FormatError{off, fmt.Sprintf(format, args...)}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("yaz0: %s (at offset %d)", e.Msg, e.Off)
}

// IsCompressed reports whether src starts with the Yaz0 signature.
func IsCompressed(src []byte) bool {
	return len(src) >= len(magic) && bytes.Equal(src[:len(magic)], magic)
}

// DecompressedSize returns the size declared in the container header.
func DecompressedSize(src []byte) (int, error) {
	if len(src) < HeaderSize {
		return 0, formatErrf(len(src), "truncated header: %d bytes, %d wanted", len(src), HeaderSize)
	}
	if !IsCompressed(src) {
		return 0, formatErrf(0, "bad signature %q", src[:len(magic)])
	}
	return int(binary.BigEndian.Uint32(src[4:8])), nil
}

func Decompress(src []byte) ([]byte, error) {
	size, err := DecompressedSize(src)
	if err != nil {
		return nil, err
	}
	// Every back-reference takes at least 3 input bytes and yields at most
	// maxMatch, so no payload expands by more than maxMatch/3.
	if limit := (len(src) - HeaderSize) * maxMatch / 3; size > limit {
		return nil, formatErrf(4, "declared size %d exceeds the %d bytes a %d byte payload can produce", size, limit, len(src)-HeaderSize)
	}
	dst := make([]byte, 0, size)
	in := HeaderSize

	for len(dst) < size {
		if in >= len(src) {
			return nil, formatErrf(in, "unexpected end of data: produced %d of %d bytes", len(dst), size)
		}
		flags := src[in]
		in++
		for bit := 0; bit < groupChunks && len(dst) < size; bit++ {
			if flags&(0x80>>bit) != 0 {
				if in >= len(src) {
					return nil, formatErrf(in, "unexpected end of data in literal: produced %d of %d bytes", len(dst), size)
				}
				dst = append(dst, src[in])
				in++
				continue
			}

			if in+2 > len(src) {
				return nil, formatErrf(in, "unexpected end of data in back-reference")
			}
			nd, dd := src[in], src[in+1]
			in += 2
			dist := (int(nd&0x0F)<<8 | int(dd)) + 1
			n := int(nd >> 4)
			if n == 0 {
				if in >= len(src) {
					return nil, formatErrf(in, "unexpected end of data in back-reference length")
				}
				n = int(src[in]) + shortLimit
				in++
			} else {
				n += 2
			}
			if dist > len(dst) {
				return nil, formatErrf(in, "back-reference distance %d exceeds %d decoded bytes", dist, len(dst))
			}
			if rem := size - len(dst); n > rem {
				return nil, formatErrf(in, "back-reference length %d overruns declared size by %d", n, n-rem)
			}
			start := len(dst) - dist
			for i := 0; i < n; i++ {
				dst = append(dst, dst[start+i])
			}
		}
	}
	return dst, nil
}

// Compress produces a Yaz0 container for src. The output is deterministic for
// a given input but is not guaranteed to match any other encoder bit for bit.
func Compress(src []byte) []byte {
	var w writer
	w.buf = make([]byte, HeaderSize, HeaderSize+len(src)+len(src)/8+groupChunks)
	copy(w.buf, magic)
	binary.BigEndian.PutUint32(w.buf[4:8], uint32(len(src)))

	m := newMatcher(src)
	for pos := 0; pos < len(src); {
		dist, n := m.longest(pos)
		if n >= minMatch && pos+1 < len(src) {
			// lazy evaluation: prefer a literal if the next position has a clearly longer match
			m.insert(pos)
			if d2, n2 := m.longest(pos + 1); n2 > n+1 {
				w.literal(src[pos])
				pos++
				dist, n = d2, n2
			}
		}
		if n >= minMatch {
			w.backref(dist, n)
			for end := pos + n; pos < end; pos++ {
				m.insert(pos)
			}
		} else {
			w.literal(src[pos])
			m.insert(pos)
			pos++
		}
	}
	return w.buf
}

type writer struct {
	buf     []byte
	flagOff int
	chunks  int
}

func (w *writer) next(isLiteral bool) {
	if w.chunks == 0 {
		w.flagOff = len(w.buf)
		w.buf = append(w.buf, 0)
	}
	if isLiteral {
		w.buf[w.flagOff] |= 0x80 >> w.chunks
	}
	w.chunks = (w.chunks + 1) % groupChunks
}

func (w *writer) literal(b byte) {
	w.next(true)
	w.buf = append(w.buf, b)
}

func (w *writer) backref(dist, n int) {
	w.next(false)
	d := dist - 1
	if n < shortLimit {
		w.buf = append(w.buf, byte((n-2)<<4)|byte(d>>8), byte(d))
	} else {
		w.buf = append(w.buf, byte(d>>8), byte(d), byte(n-shortLimit))
	}
}

// matcher finds back-references using hash chains over 3-byte prefixes.
type matcher struct {
	src      []byte
	head     []int32
	prev     []int32
	inserted int
}

func newMatcher(src []byte) *matcher {
	m := &matcher{
		src:  src,
		head: make([]int32, 1<<hashBits),
		prev: make([]int32, len(src)),
	}
	for i := range m.head {
		m.head[i] = noPosition
	}
	return m
}

func (m *matcher) hash(pos int) uint32 {
	v := uint32(m.src[pos])<<16 | uint32(m.src[pos+1])<<8 | uint32(m.src[pos+2])
	return (v * 2654435761) >> (32 - hashBits)
}

// insert registers pos in the hash chains. Positions must be inserted in
// increasing order; repeated insertions of the same position are ignored.
func (m *matcher) insert(pos int) {
	if pos < m.inserted {
		return
	}
	m.inserted = pos + 1
	if pos+minMatch > len(m.src) {
		return
	}
	h := m.hash(pos)
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

func (m *matcher) longest(pos int) (dist, n int) {
	if pos+minMatch > len(m.src) {
		return 0, 0
	}
	limit := min(maxMatch, len(m.src)-pos)
	cand := m.head[m.hash(pos)]
	if int(cand) == pos {
		cand = m.prev[pos]
	}
	for chain := 0; cand != noPosition && chain < maxChain; chain++ {
		c := int(cand)
		d := pos - c
		if d > windowSize {
			break
		}
		if m.src[c+n] == m.src[pos+n] {
			k := 0
			for k < limit && m.src[c+k] == m.src[pos+k] {
				k++
			}
			if k > n {
				dist, n = d, k
				if k >= limit || k >= niceMatch {
					break
				}
			}
		}
		cand = m.prev[c]
	}
	if n < minMatch {
		return 0, 0
	}
	return dist, n
}
