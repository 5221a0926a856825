package tdslite

import "encoding/binary"

// Money is a signed fixed-point value with an implicit divisor of
// 10,000, as carried by the MONEY and SMALLMONEY TDS types (§4.E).
// Grounded on original_source/src/tdslite/detail/sqltypes/sql_money.hpp.
type Money struct {
	raw int64
}

// decodeMoney interprets an 8-byte MONEY field: one 4-byte integer
// holding the more-significant half, followed by one 4-byte integer
// holding the less-significant half; the concatenated 64 bits are
// two's-complement signed (§4.E, §9 open question resolution).
func decodeMoney(raw []byte) Money {
	if len(raw) != 8 {
		badStreamf("money: expected 8 bytes, got %d", len(raw))
	}
	msh := binary.LittleEndian.Uint32(raw[0:4])
	lsh := binary.LittleEndian.Uint32(raw[4:8])
	v := (uint64(msh) << 32) | uint64(lsh)
	return Money{raw: int64(v)}
}

// decodeSmallMoney interprets a 4-byte SMALLMONEY field as a signed
// 32-bit fixed-point value with the same 10,000 divisor.
func decodeSmallMoney(raw []byte) Money {
	if len(raw) != 4 {
		badStreamf("smallmoney: expected 4 bytes, got %d", len(raw))
	}
	v := int32(binary.LittleEndian.Uint32(raw))
	return Money{raw: int64(v)}
}

// Raw returns the underlying signed 64-bit fixed-point value.
func (m Money) Raw() int64 { return m.raw }

// Integer returns the whole-currency-unit part of the value.
func (m Money) Integer() int64 { return m.raw / 10000 }

// Fraction returns the sub-unit remainder (ten-thousandths).
func (m Money) Fraction() int64 { return m.raw % 10000 }

// Float64 returns the value as a float64 (lossy for very large amounts;
// prefer Raw/Integer/Fraction for exact arithmetic).
func (m Money) Float64() float64 {
	return float64(m.raw) / 10000.0
}
