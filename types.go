package tdslite

// dataType is the TDS wire type identifier carried in a column's
// TYPE_INFO (§3).
type dataType byte

// Fixed-length types (§4.E).
const (
	typeInt1    dataType = 0x30 // TinyInt
	typeBit     dataType = 0x32
	typeInt2    dataType = 0x34 // SmallInt
	typeInt4    dataType = 0x38 // Int
	typeDateTim4 dataType = 0x3A // SmallDateTime
	typeFlt4    dataType = 0x3B // Real
	typeMoney   dataType = 0x3C
	typeDateTime dataType = 0x3D
	typeFlt8    dataType = 0x3E // Float
	typeMoney4  dataType = 0x7A // SmallMoney
	typeInt8    dataType = 0x7F // BigInt
)

// u8-length-prefixed ("N") types (§4.E).
const (
	typeGUID     dataType = 0x24
	typeIntN     dataType = 0x26
	typeDecimalLegacy dataType = 0x37
	typeBitN     dataType = 0x68
	typeDecimalN dataType = 0x6A
	typeNumericN dataType = 0x6C
	typeFltN     dataType = 0x6D
	typeMoneyN   dataType = 0x6E
	typeDateTimeN dataType = 0x6F
	typeNumericLegacy dataType = 0x3F
)

// u16-length-prefixed types (§4.E).
const (
	typeBigVarBin dataType = 0xA5 // VARBINARY
	typeBigVarChr dataType = 0xA7 // VARCHAR
	typeBigBinary dataType = 0xAD // BINARY
	typeBigChar   dataType = 0xAF // CHAR
	typeNVarChar  dataType = 0xE7
	typeNChar     dataType = 0xEF
)

// u32-length-prefixed types (§4.E).
const (
	typeText  dataType = 0x23
	typeImage dataType = 0x22
	typeNText dataType = 0x63
	typeXML   dataType = 0xF1
)

// plpSentinel16 is the declared-max-length value in COLMETADATA that
// marks a u16-prefixed type as a MAX (PLP-encoded) variant (§3).
// plpSentinel32 is the u32 value length decodeLongField treats as NULL.
const plpSentinel16 = 0xFFFF
const plpSentinel32 = 0xFFFFFFFF

// PLP per-value length sentinels (§4.E).
const plpUnknownLength = 0xFFFFFFFFFFFFFFFE
const plpNullLength = 0xFFFFFFFFFFFFFFFF

type sizeClass int

const (
	sizeFixed sizeClass = iota
	sizeU8Prefixed
	sizeU16Prefixed
	sizeU32Prefixed
	sizePLP
)

// typeInfo is a column's decode recipe: its TDS type id, the size class
// that determines its framing, and any class-specific parameters
// (declared max length, precision/scale for numeric types).
type typeInfo struct {
	id        dataType
	class     sizeClass
	fixedLen  int
	maxLen    int
	precision uint8
	scale     uint8
	collation [5]byte
}

// columnStruct is the column descriptor produced by COLMETADATA and
// consumed by row decode (§3).
type columnStruct struct {
	userType uint32
	flags    uint16
	name     string
	ti       typeInfo
}

func (c columnStruct) nullable() bool {
	return c.flags&colFlagNullable != 0
}

const colFlagNullable = 1

// fixedTypeLen reports the byte length of a fixed-size type, or
// (0, false) if id isn't a recognized fixed type.
func fixedTypeLen(id dataType) (int, bool) {
	switch id {
	case typeInt1, typeBit:
		return 1, true
	case typeInt2:
		return 2, true
	case typeInt4, typeDateTim4, typeFlt4, typeMoney4:
		return 4, true
	case typeInt8, typeMoney, typeDateTime, typeFlt8:
		return 8, true
	default:
		return 0, false
	}
}

// readTypeInfo decodes a column's TYPE_INFO, starting right after the
// 1-byte type id has already been consumed by the caller (§4.D
// COLMETADATA framing).
func readTypeInfo(buf *tdsBuffer, id dataType) typeInfo {
	if n, ok := fixedTypeLen(id); ok {
		return typeInfo{id: id, class: sizeFixed, fixedLen: n}
	}

	switch id {
	case typeGUID, typeIntN, typeBitN, typeFltN, typeMoneyN, typeDateTimeN:
		maxLen := int(buf.byte())
		return typeInfo{id: id, class: sizeU8Prefixed, maxLen: maxLen}

	case typeDecimalN, typeNumericN, typeDecimalLegacy, typeNumericLegacy:
		maxLen := int(buf.byte())
		precision := buf.byte()
		scale := buf.byte()
		return typeInfo{id: id, class: sizeU8Prefixed, maxLen: maxLen, precision: precision, scale: scale}

	case typeBigVarBin, typeBigBinary:
		maxLen := int(buf.uint16())
		if maxLen == plpSentinel16 {
			return typeInfo{id: id, class: sizePLP}
		}
		return typeInfo{id: id, class: sizeU16Prefixed, maxLen: maxLen}

	case typeBigVarChr, typeBigChar, typeNVarChar, typeNChar:
		maxLen := int(buf.uint16())
		var coll [5]byte
		buf.ReadFull(coll[:])
		ti := typeInfo{id: id, maxLen: maxLen, collation: coll}
		if maxLen == plpSentinel16 {
			ti.class = sizePLP
		} else {
			ti.class = sizeU16Prefixed
		}
		return ti

	case typeText, typeNText, typeImage:
		maxLen := int(buf.uint32())
		var coll [5]byte
		if id != typeImage {
			buf.ReadFull(coll[:])
		}
		return typeInfo{id: id, class: sizeU32Prefixed, maxLen: maxLen, collation: coll}

	case typeXML:
		// XML carries a 1-byte schema-present flag; when present, a
		// schema descriptor follows. We never consult the schema.
		schemaPresent := buf.byte()
		if schemaPresent != 0 {
			_ = buf.bVarChar() // db name
			_ = buf.bVarChar() // owning schema
			_ = buf.usVarChar() // xml schema collection name
		}
		return typeInfo{id: id, class: sizePLP}

	default:
		badStreamf("unknown column type id 0x%02x", byte(id))
		return typeInfo{}
	}
}

// decodeField reads one field's raw bytes per its typeInfo's size
// class, returning (raw, isNull). raw is a borrowed view into the
// session's receive buffer (§3 "Field value"); callers that retain it
// must copy.
func decodeField(buf *tdsBuffer, ti typeInfo) (raw []byte, isNull bool) {
	switch ti.class {
	case sizeFixed:
		return buf.view(ti.fixedLen), false

	case sizeU8Prefixed:
		n := int(buf.byte())
		if n == 0 {
			return nil, true
		}
		return buf.view(n), false

	case sizeU16Prefixed:
		n := buf.uint16()
		if n == 0xFFFF {
			return nil, true
		}
		return buf.view(int(n)), false

	case sizeU32Prefixed:
		return decodeLongField(buf)

	case sizePLP:
		return decodePLPField(buf)

	default:
		badStreamf("unknown size class for column type 0x%02x", byte(ti.id))
		return nil, false
	}
}

// decodeLongField reads a TEXT/NTEXT/IMAGE field: a variable-length
// text pointer, an 8-byte timestamp, then a u32-length-prefixed payload
// (§4.E).
func decodeLongField(buf *tdsBuffer) ([]byte, bool) {
	ptrLen := int(buf.byte())
	if ptrLen == 0 {
		return nil, true
	}
	buf.view(ptrLen) // text pointer, unused
	buf.view(8)      // timestamp, unused
	n := buf.uint32()
	if n == plpSentinel32 {
		return nil, true
	}
	return buf.view(int(n)), false
}

// decodePLPField reads a partially-length-prefixed value: an 8-byte
// total length (ignored beyond the NULL/unknown sentinels), followed by
// a sequence of u32-prefixed chunks terminated by a zero-length chunk
// (§4.E, §9 — resolves the spec's mandated behavior over the source's
// incomplete PLP handling).
func decodePLPField(buf *tdsBuffer) ([]byte, bool) {
	total := buf.uint64()
	if total == plpNullLength {
		return nil, true
	}
	var out []byte
	for {
		chunkLen := buf.uint32()
		if chunkLen == 0 {
			break
		}
		out = append(out, buf.view(int(chunkLen))...)
	}
	return out, false
}
