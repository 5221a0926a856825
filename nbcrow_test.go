package tdslite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNbcRowBitmapMarksNullColumns(t *testing.T) {
	cols := []columnStruct{
		{name: "a", ti: typeInfo{id: typeInt4, class: sizeFixed, fixedLen: 4}},
		{name: "b", ti: typeInfo{id: typeInt4, class: sizeFixed, fixedLen: 4}},
		{name: "c", ti: typeInfo{id: typeInt4, class: sizeFixed, fixedLen: 4}},
	}
	// bitmap: bit0=0 (present), bit1=1 (null), bit2=0 (present); LSB-first.
	bitmap := byte(0b00000010)
	var body []byte
	body = append(body, bitmap)
	body = append(body, 1, 0, 0, 0) // column a = 1
	body = append(body, 3, 0, 0, 0) // column c = 3 (column b has no bytes, it's null)

	buf := bufFromBytes(body)
	row := parseNbcRow(buf, cols, NewPoolRowAllocator())

	require.False(t, row[0].IsNull())
	require.Equal(t, int64(1), row[0].Int64())
	require.True(t, row[1].IsNull())
	require.False(t, row[2].IsNull())
	require.Equal(t, int64(3), row[2].Int64())
}

func TestParseNbcRowAllNull(t *testing.T) {
	cols := []columnStruct{
		{name: "a", ti: typeInfo{id: typeInt4, class: sizeFixed, fixedLen: 4}},
		{name: "b", ti: typeInfo{id: typeInt4, class: sizeFixed, fixedLen: 4}},
	}
	bitmap := byte(0b00000011)
	buf := bufFromBytes([]byte{bitmap})
	row := parseNbcRow(buf, cols, NewPoolRowAllocator())

	require.True(t, row[0].IsNull())
	require.True(t, row[1].IsNull())
}

func TestParseNbcRowBitmapSpansMultipleBytes(t *testing.T) {
	cols := make([]columnStruct, 9)
	for i := range cols {
		cols[i] = columnStruct{ti: typeInfo{id: typeInt1, class: sizeFixed, fixedLen: 1}}
	}
	// 9 columns -> 2 bitmap bytes. Mark only column 8 (index 8, bit 0 of
	// second byte) as null.
	body := []byte{0x00, 0x01}
	for i := 0; i < 8; i++ {
		body = append(body, byte(i))
	}
	buf := bufFromBytes(body)
	row := parseNbcRow(buf, cols, NewPoolRowAllocator())

	for i := 0; i < 8; i++ {
		require.False(t, row[i].IsNull())
		require.Equal(t, int64(i), row[i].Int64())
	}
	require.True(t, row[8].IsNull())
}
