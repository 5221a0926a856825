package tdslite

import (
	"encoding/binary"
	"math"
)

// reader is an endian-aware cursor over a byte slice. It never allocates;
// bytes and similar operations return sub-slices of the original
// view. Callers that need to retain a value past the lifetime of the
// underlying buffer must copy it out.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) hasBytes(n int) bool {
	return r.remaining() >= n
}

func (r *reader) advance(n int) {
	r.pos += n
}

// bytes returns a sub-view of the next n bytes without copying, and
// advances the cursor. Panics if fewer than n bytes remain; callers must
// check hasBytes first when a short read is recoverable.
func (r *reader) bytes(n int) []byte {
	if !r.hasBytes(n) {
		badStreamf("reader: requested %d bytes, %d remaining", n, r.remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) byte() byte {
	return r.bytes(1)[0]
}

func (r *reader) uint8() uint8 {
	return r.byte()
}

func (r *reader) int8() int8 {
	return int8(r.byte())
}

func (r *reader) uint16LE() uint16 {
	return binary.LittleEndian.Uint16(r.bytes(2))
}

func (r *reader) uint16BE() uint16 {
	return binary.BigEndian.Uint16(r.bytes(2))
}

func (r *reader) int16LE() int16 {
	return int16(r.uint16LE())
}

func (r *reader) uint32LE() uint32 {
	return binary.LittleEndian.Uint32(r.bytes(4))
}

func (r *reader) uint32BE() uint32 {
	return binary.BigEndian.Uint32(r.bytes(4))
}

func (r *reader) int32LE() int32 {
	return int32(r.uint32LE())
}

func (r *reader) uint64LE() uint64 {
	return binary.LittleEndian.Uint64(r.bytes(8))
}

func (r *reader) uint64BE() uint64 {
	return binary.BigEndian.Uint64(r.bytes(8))
}

func (r *reader) int64LE() int64 {
	return int64(r.uint64LE())
}

func (r *reader) float32LE() float32 {
	return math.Float32frombits(r.uint32LE())
}

func (r *reader) float64LE() float64 {
	return math.Float64frombits(r.uint64LE())
}

