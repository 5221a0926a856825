package tdslite

import (
	"golang.org/x/text/encoding/unicode"
)

var (
	utf16Encoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
)

// str2ucs2 encodes s as UTF-16LE bytes, as required for every string
// field on the wire (§6).
func str2ucs2(s string) []byte {
	b, err := utf16Encoder.Bytes([]byte(s))
	if err != nil {
		badStream(err)
	}
	return b
}

// ucs22str decodes UTF-16LE bytes into a Go string.
func ucs22str(b []byte) string {
	s, err := utf16Decoder.Bytes(b)
	if err != nil {
		badStream(err)
	}
	return string(s)
}

// --- string/varbyte framing primitives (§4.D) ---

// bVarChar reads a u8 character count followed by that many UTF-16LE
// code units.
func (b *tdsBuffer) bVarChar() string {
	n := int(b.byte())
	return ucs22str(b.view(n * 2))
}

// usVarChar reads a u16 character count followed by that many UTF-16LE
// code units.
func (b *tdsBuffer) usVarChar() string {
	n := int(b.uint16())
	return ucs22str(b.view(n * 2))
}

// bVarByte reads a u8 length in bytes followed by the raw payload.
func (b *tdsBuffer) bVarByte() []byte {
	n := int(b.byte())
	return b.view(n)
}

// usVarByte reads a u16 length in bytes, with 0xFFFF meaning NULL.
// Returns (nil, true) for NULL.
func (b *tdsBuffer) usVarByte() ([]byte, bool) {
	n := b.uint16()
	if n == 0xFFFF {
		return nil, true
	}
	return b.view(int(n)), false
}

// lVarByte reads a u32 length in bytes, with 0xFFFFFFFF meaning NULL.
func (b *tdsBuffer) lVarByte() ([]byte, bool) {
	n := b.uint32()
	if n == 0xFFFFFFFF {
		return nil, true
	}
	return b.view(int(n)), false
}

// --- outbound encode helpers, mirroring the read side ---

func (b *tdsBuffer) writeBVarChar(s string) {
	enc := str2ucs2(s)
	b.WriteByte(byte(len(enc) / 2))
	b.WriteBytes(enc)
}

func (b *tdsBuffer) writeUsVarChar(s string) {
	enc := str2ucs2(s)
	b.WriteUint16LE(uint16(len(enc) / 2))
	b.WriteBytes(enc)
}
