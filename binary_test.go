package tdslite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderIntegerRoundTrip(t *testing.T) {
	buf := []byte{
		0xEF, 0xBE, // uint16LE 0xBEEF
		0xEF, 0xBE, 0xAD, 0xDE, // uint32LE 0xDEADBEEF
		0xCA, 0xFE, 0xBA, 0xBE, // uint32BE 0xCAFEBABE
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // uint64LE
	}
	r := newReader(buf)
	assert.Equal(t, uint16(0xBEEF), r.uint16LE())
	assert.Equal(t, uint32(0xDEADBEEF), r.uint32LE())
	assert.Equal(t, uint32(0xCAFEBABE), r.uint32BE())
	assert.Equal(t, uint64(0x0807060504030201), r.uint64LE())
	assert.Equal(t, 0, r.remaining())
}

func TestReaderBytesPanicsOnShortRead(t *testing.T) {
	r := newReader([]byte{1, 2})
	assert.Panics(t, func() { r.bytes(3) })
}
