package tdslite

import (
	"encoding/binary"
	"math"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field is either NULL or a borrowed byte view into the receive buffer
// plus the column descriptor that produced it (§3 "Field value"). It is
// only valid until the next network read mutates the buffer; callers
// that need to retain the value must copy it out before returning from
// a row callback.
type Field struct {
	ti   typeInfo
	raw  []byte
	null bool
}

// IsNull reports whether the field was NULL on the wire.
func (f Field) IsNull() bool { return f.null }

// Bytes returns the raw byte view backing this field, or nil if NULL.
func (f Field) Bytes() []byte { return f.raw }

// Int64 interprets the field as a little-endian signed integer of
// whatever declared width it has (INT1/2/4/8, INTN, BIT/BITN).
func (f Field) Int64() int64 {
	switch len(f.raw) {
	case 1:
		return int64(int8(f.raw[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(f.raw)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(f.raw)))
	case 8:
		return int64(binary.LittleEndian.Uint64(f.raw))
	default:
		badStreamf("int64: unsupported width %d", len(f.raw))
		return 0
	}
}

// Bool interprets a BIT/BITN field.
func (f Field) Bool() bool {
	if len(f.raw) != 1 {
		badStreamf("bool: unsupported width %d", len(f.raw))
	}
	return f.raw[0] != 0
}

// Float64 interprets a FLT4/FLT8/FLTN field using IEEE-754.
func (f Field) Float64() float64 {
	switch len(f.raw) {
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(f.raw)))
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(f.raw))
	default:
		badStreamf("float64: unsupported width %d", len(f.raw))
		return 0
	}
}

// Money interprets a MONEY/MONEY4/MONEYN field.
func (f Field) Money() Money {
	switch len(f.raw) {
	case 4:
		return decodeSmallMoney(f.raw)
	case 8:
		return decodeMoney(f.raw)
	default:
		badStreamf("money: unsupported width %d", len(f.raw))
		return Money{}
	}
}

// DateTime interprets a DATETIME/DATETIMN(8) field.
func (f Field) DateTime() DateTime {
	return decodeDateTime(f.raw)
}

// SmallDateTime interprets a SMALLDATETIME/DATETIMN(4) field.
func (f Field) SmallDateTime() SmallDateTime {
	return decodeSmallDateTime(f.raw)
}

// CivilDateTime dispatches to DateTime or SmallDateTime by width and
// returns a timezone-less civil.DateTime.
func (f Field) CivilDateTime() civil.DateTime {
	switch len(f.raw) {
	case 4:
		return f.SmallDateTime().CivilDateTime()
	case 8:
		return f.DateTime().CivilDateTime()
	default:
		badStreamf("datetime: unsupported width %d", len(f.raw))
		return civil.DateTime{}
	}
}

// Decimal interprets a DECIMALN/NUMERICN field using the precision and
// scale carried on the column descriptor since COLMETADATA.
func (f Field) Decimal() decimal.Decimal {
	return decodeDecimal(f.raw, f.ti.scale)
}

// UUID interprets a GUID field.
func (f Field) UUID() uuid.UUID {
	return decodeGUID(f.raw)
}

// String decodes an NCHAR/NVARCHAR/NTEXT field from UTF-16LE. A
// CHAR/VARCHAR/TEXT field's bytes are returned unchanged as the string's
// bytes; the column's collation is not consulted and no code-page
// conversion is done, so only ASCII text reads back as written (§1
// Non-goals).
func (f Field) String() string {
	if isWideType(f.ti.id) {
		return ucs22str(f.raw)
	}
	return string(f.raw)
}

func isWideType(id dataType) bool {
	switch id {
	case typeNVarChar, typeNChar, typeNText:
		return true
	default:
		return false
	}
}
