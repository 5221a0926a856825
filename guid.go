package tdslite

import "github.com/google/uuid"

// decodeGUID converts a 16-byte TDS UNIQUEIDENTIFIER value (Data1/Data2/
// Data3 little-endian, Data4 as-is) into a standard big-endian
// uuid.UUID (§4.E).
func decodeGUID(raw []byte) uuid.UUID {
	if len(raw) != 16 {
		badStreamf("guid: expected 16 bytes, got %d", len(raw))
	}
	var b [16]byte
	b[0], b[1], b[2], b[3] = raw[3], raw[2], raw[1], raw[0]
	b[4], b[5] = raw[5], raw[4]
	b[6], b[7] = raw[7], raw[6]
	copy(b[8:16], raw[8:16])
	return uuid.UUID(b)
}

// encodeGUID is the inverse of decodeGUID: converts a standard
// big-endian uuid.UUID into TDS UNIQUEIDENTIFIER wire bytes (§4.E).
func encodeGUID(id uuid.UUID) []byte {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = id[3], id[2], id[1], id[0]
	b[4], b[5] = id[5], id[4]
	b[6], b[7] = id[7], id[6]
	copy(b[8:16], id[8:16])
	return b
}
