package tdslite

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeMoneyFixture(v int64) []byte {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(uint64(v)>>32))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(uint64(v)))
	return raw
}

func TestDecodeMoneyPositive(t *testing.T) {
	m := decodeMoney(encodeMoneyFixture(10000)) // $1.00
	require.Equal(t, int64(1), m.Integer())
	require.Equal(t, int64(0), m.Fraction())
	require.InDelta(t, 1.0, m.Float64(), 0.0001)
}

func TestDecodeMoneyNegative(t *testing.T) {
	m := decodeMoney(encodeMoneyFixture(-10000)) // -$1.00
	require.Equal(t, int64(-1), m.Integer())
	require.InDelta(t, -1.0, m.Float64(), 0.0001)
}

func TestDecodeMoneyFractional(t *testing.T) {
	m := decodeMoney(encodeMoneyFixture(123456789)) // $12345.6789
	require.Equal(t, int64(12345), m.Integer())
	require.Equal(t, int64(6789), m.Fraction())
}

func TestDecodeMoneyRejectsWrongWidth(t *testing.T) {
	require.Panics(t, func() { decodeMoney([]byte{1, 2, 3}) })
}

func TestDecodeSmallMoneyRoundTrip(t *testing.T) {
	raw := make([]byte, 4)
	v := int32(-2550) // -$0.2550
	binary.LittleEndian.PutUint32(raw, uint32(v))
	m := decodeSmallMoney(raw)
	require.Equal(t, int64(0), m.Integer())
	require.Equal(t, int64(-2550), m.Raw())
}
