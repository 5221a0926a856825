package tdslite

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// decodeDecimal interprets a DECIMALN/NUMERICN field: a 1-byte sign
// (0 = negative, 1 = positive) followed by a little-endian unsigned
// magnitude, combined with the precision/scale carried on the column
// descriptor since COLMETADATA time (§4.E).
func decodeDecimal(raw []byte, scale uint8) decimal.Decimal {
	if len(raw) < 1 {
		badStreamf("decimal: empty value")
	}
	sign := raw[0]
	magnitude := raw[1:]

	be := make([]byte, len(magnitude))
	for i, b := range magnitude {
		be[len(magnitude)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if sign == 0 {
		v.Neg(v)
	}
	return decimal.NewFromBigInt(v, -int32(scale))
}
