package tdslite

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGUIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("12345678-1234-5678-9abc-123456789abc")
	wire := encodeGUID(id)
	require.Len(t, wire, 16)

	decoded := decodeGUID(wire)
	require.Equal(t, id, decoded)
}

func TestDecodeGUIDRejectsWrongWidth(t *testing.T) {
	require.Panics(t, func() { decodeGUID([]byte{1, 2, 3}) })
}

func TestDecodeGUIDByteOrder(t *testing.T) {
	// Data1 (4 bytes, little-endian on wire), Data2/Data3 (2 bytes each,
	// little-endian), Data4 (8 bytes, as-is).
	wire := []byte{
		0x04, 0x03, 0x02, 0x01, // Data1 = 0x01020304
		0x06, 0x05, // Data2 = 0x0506
		0x08, 0x07, // Data3 = 0x0708
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, // Data4
	}
	id := decodeGUID(wire)
	require.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", id.String())
}
