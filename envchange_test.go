package tdslite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func bufFromBytes(b []byte) *tdsBuffer {
	return &tdsBuffer{rbuf: b, rsize: len(b), inMore: false}
}

func TestProcessEnvChangeDatabase(t *testing.T) {
	var body []byte
	body = append(body, encodeBVarChar("newdb")...)
	body = append(body, encodeBVarChar("master")...)

	buf := bufFromBytes(append([]byte{envTypDatabase}, body...))
	sess := &Session{logFlags: 0, logger: defaultLogger}
	processEnvChange(buf, sess, len(body)+1)

	require.Equal(t, "newdb", sess.database)
}

func TestProcessEnvChangePacketSize(t *testing.T) {
	var body []byte
	body = append(body, encodeBVarChar("8192")...)
	body = append(body, encodeBVarChar("4096")...)

	buf := bufFromBytes(append([]byte{envTypPacketSize}, body...))
	sess := &Session{logFlags: 0, logger: defaultLogger, buf: newTdsBuffer(nil, 4096)}
	processEnvChange(buf, sess, len(body)+1)

	require.Equal(t, 8192, sess.packetSize)
}

func TestProcessEnvChangeUnknownSubtypeSkipsDeclaredLength(t *testing.T) {
	body := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	buf := bufFromBytes(append([]byte{99}, body...))
	sess := &Session{logFlags: 0, logger: defaultLogger}
	processEnvChange(buf, sess, len(body)+1)

	require.Equal(t, 0, buf.remaining())
}

func TestProcessEnvChangeRouting(t *testing.T) {
	var body []byte
	body = append(body, 0, 0) // value length, ignored by our decoder
	body = append(body, 0)   // protocol = TCP
	body = append(body, 0x39, 0x05) // port 1337 little-endian
	body = append(body, encodeUsVarChar("redirected-host")...)
	body = append(body, 0, 0) // old value, zero length

	buf := bufFromBytes(append([]byte{envRouting}, body...))
	sess := &Session{logFlags: 0, logger: defaultLogger}
	processEnvChange(buf, sess, len(body)+1)

	require.Equal(t, uint16(1337), sess.routedPort)
	require.Equal(t, "redirected-host", sess.routedServer)
}

func encodeBVarChar(s string) []byte {
	enc := str2ucs2(s)
	return append([]byte{byte(len(enc) / 2)}, enc...)
}

func encodeUsVarChar(s string) []byte {
	enc := str2ucs2(s)
	out := make([]byte, 2, 2+len(enc))
	out[0] = byte(len(enc) / 2)
	out[1] = byte(len(enc) / 2 >> 8)
	return append(out, enc...)
}
