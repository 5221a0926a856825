package tdslite

import (
	"math"

	"github.com/google/uuid"
)

// paramType tags which wire encoding a Param carries (§4.E "RPC
// parameter binding").
type paramType byte

const (
	paramBit paramType = iota
	paramTinyInt
	paramSmallInt
	paramInt
	paramBigInt
	paramFloat4
	paramFloat8
	paramNVarChar
	paramVarChar
	paramNChar
	paramChar
	paramVarBinary
	paramBinary
	paramGUID
)

// Param is one RPC parameter: a name, an output flag, and a tagged
// payload (§4.E). Output parameters are returned via RETURNVALUE
// tokens and surfaced through execResult.OutputParams.
type Param struct {
	Name     string
	Output   bool
	kind     paramType
	intVal   int64
	floatVal float64
	strVal   string
	binVal   []byte
	isNull   bool
}

func BitParam(name string, v bool) Param {
	iv := int64(0)
	if v {
		iv = 1
	}
	return Param{Name: name, kind: paramBit, intVal: iv}
}

func TinyIntParam(name string, v uint8) Param {
	return Param{Name: name, kind: paramTinyInt, intVal: int64(v)}
}

func SmallIntParam(name string, v int16) Param {
	return Param{Name: name, kind: paramSmallInt, intVal: int64(v)}
}

func IntParam(name string, v int32) Param {
	return Param{Name: name, kind: paramInt, intVal: int64(v)}
}

func BigIntParam(name string, v int64) Param {
	return Param{Name: name, kind: paramBigInt, intVal: v}
}

func Float4Param(name string, v float32) Param {
	return Param{Name: name, kind: paramFloat4, floatVal: float64(v)}
}

func Float8Param(name string, v float64) Param {
	return Param{Name: name, kind: paramFloat8, floatVal: v}
}

func NVarCharParam(name, v string) Param {
	return Param{Name: name, kind: paramNVarChar, strVal: v}
}

func VarCharParam(name, v string) Param {
	return Param{Name: name, kind: paramVarChar, strVal: v}
}

func NCharParam(name, v string) Param {
	return Param{Name: name, kind: paramNChar, strVal: v}
}

func CharParam(name, v string) Param {
	return Param{Name: name, kind: paramChar, strVal: v}
}

func VarBinaryParam(name string, v []byte) Param {
	return Param{Name: name, kind: paramVarBinary, binVal: v}
}

func BinaryParam(name string, v []byte) Param {
	return Param{Name: name, kind: paramBinary, binVal: v}
}

func GUIDParam(name string, v uuid.UUID) Param {
	return Param{Name: name, kind: paramGUID, binVal: encodeGUID(v)}
}

// OutputParam marks an existing Param as an RPC output parameter,
// returning the server's assigned value after execution (§4.E).
func OutputParam(p Param) Param {
	p.Output = true
	return p
}

// paramStatusDefault / paramStatusByRef are the RPC parameter status byte
// values (§4.E).
const (
	paramStatusDefault byte = 0x00
	paramStatusByRef   byte = 0x01
)

// encode writes this parameter's NAME/STATUS/TYPE_INFO/VALUE onto buf
// (§4.E RPC parameter wire layout).
func (p Param) encode(buf *tdsBuffer) {
	buf.writeBVarChar("@" + p.Name)

	status := paramStatusDefault
	if p.Output {
		status = paramStatusByRef
	}
	buf.WriteByte(status)

	switch p.kind {
	case paramBit:
		buf.WriteByte(byte(typeBitN))
		buf.WriteByte(1)
		buf.WriteByte(1)
		buf.WriteByte(byte(p.intVal))

	case paramTinyInt, paramSmallInt, paramInt, paramBigInt:
		buf.WriteByte(byte(typeIntN))
		width, v := intNEncoding(p.kind, p.intVal)
		buf.WriteByte(byte(width))
		buf.WriteByte(byte(width))
		buf.WriteBytes(v)

	case paramFloat4:
		buf.WriteByte(byte(typeFltN))
		buf.WriteByte(4)
		buf.WriteByte(4)
		buf.WriteBytes(float4Bytes(float32(p.floatVal)))

	case paramFloat8:
		buf.WriteByte(byte(typeFltN))
		buf.WriteByte(8)
		buf.WriteByte(8)
		buf.WriteBytes(float8Bytes(p.floatVal))

	case paramNVarChar, paramNChar:
		enc := str2ucs2(p.strVal)
		buf.WriteByte(byte(typeNVarChar))
		buf.WriteUint16LE(8000)
		buf.WriteBytes(defaultCollation[:])
		buf.WriteUint16LE(uint16(len(enc)))
		buf.WriteBytes(enc)

	case paramVarChar, paramChar:
		enc := []byte(p.strVal)
		buf.WriteByte(byte(typeBigVarChr))
		buf.WriteUint16LE(8000)
		buf.WriteBytes(defaultCollation[:])
		buf.WriteUint16LE(uint16(len(enc)))
		buf.WriteBytes(enc)

	case paramVarBinary, paramBinary:
		buf.WriteByte(byte(typeBigVarBin))
		buf.WriteUint16LE(8000)
		buf.WriteUint16LE(uint16(len(p.binVal)))
		buf.WriteBytes(p.binVal)

	case paramGUID:
		buf.WriteByte(byte(typeGUID))
		buf.WriteByte(16)
		buf.WriteByte(16)
		buf.WriteBytes(p.binVal)

	default:
		badStreamf("param %q: unknown kind", p.Name)
	}
}

// defaultCollation is a neutral SQL_Latin1_General collation sufficient
// for ASCII text round-tripping; full code-page negotiation is out of
// scope (§1 Non-goals).
var defaultCollation = [5]byte{0x09, 0x04, 0xD0, 0x00, 0x34}

func intNEncoding(kind paramType, v int64) (width int, b []byte) {
	switch kind {
	case paramTinyInt:
		return 1, []byte{byte(v)}
	case paramSmallInt:
		return 2, le16(uint16(v))
	case paramInt:
		return 4, le32(uint32(v))
	default:
		return 8, le64(uint64(v))
	}
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func float4Bytes(f float32) []byte {
	return le32(math.Float32bits(f))
}

func float8Bytes(f float64) []byte {
	return le64(math.Float64bits(f))
}
