package tdslite

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory Transport: Send appends to outbound,
// RecvExactInto reads sequentially from a pre-seeded inbound buffer.
type fakeTransport struct {
	outbound bytes.Buffer
	inbound  *bytes.Reader
}

func newFakeTransport(inbound []byte) *fakeTransport {
	return &fakeTransport{inbound: bytes.NewReader(inbound)}
}

func (f *fakeTransport) Connect(host string, port uint16) error { return nil }
func (f *fakeTransport) Disconnect() error                      { return nil }

func (f *fakeTransport) Send(header, body []byte) error {
	f.outbound.Write(header)
	f.outbound.Write(body)
	return nil
}

func (f *fakeTransport) RecvExactInto(dst []byte) error {
	_, err := io.ReadFull(f.inbound, dst)
	return err
}

func TestFinishPacketSplitsAcrossMultiplePDUs(t *testing.T) {
	ft := newFakeTransport(nil)
	buf := newTdsBuffer(ft, 16) // header(8) + 8 bytes of payload per packet

	buf.BeginPacket(packSQLBatch)
	buf.WriteBytes(bytes.Repeat([]byte{0x42}, 20))
	require.NoError(t, buf.FinishPacket())

	out := ft.outbound.Bytes()
	// 20 bytes of payload at 8 bytes/packet -> 3 packets (8+8+4).
	require.Len(t, out, 3*headerSize+20)

	h1 := decodeHeader(out[0:8])
	require.Equal(t, packSQLBatch, h1.typ)
	require.Equal(t, uint8(0), h1.status&statusEOM)
	require.Equal(t, uint8(1), h1.packetNumber)

	h2 := decodeHeader(out[8+8 : 8+8+8])
	require.Equal(t, uint8(0), h2.status&statusEOM)
	require.Equal(t, uint8(2), h2.packetNumber)

	h3 := decodeHeader(out[8+8+8+8 : 8+8+8+8+8])
	require.Equal(t, uint8(statusEOM), h3.status&statusEOM)
	require.Equal(t, uint8(3), h3.packetNumber)
}

// buildReplyPDUs frames payload into n-byte chunks as the wire would,
// used to synthesize fixtures for reassembly tests.
func buildReplyPDUs(payload []byte, chunkSize int) []byte {
	var out bytes.Buffer
	packetNo := uint8(1)
	for {
		n := len(payload)
		last := true
		if n > chunkSize {
			n = chunkSize
			last = false
		}
		status := uint8(0)
		if last {
			status = statusEOM
		}
		hdr := pduHeader{typ: packReply, status: status, length: uint16(headerSize + n), packetNumber: packetNo}
		enc := hdr.encode()
		out.Write(enc[:])
		out.Write(payload[:n])
		packetNo++
		payload = payload[n:]
		if last {
			break
		}
	}
	return out.Bytes()
}

func TestReassemblyByteAtATimeMatchesAllAtOnce(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 10) // 40 bytes
	wire := buildReplyPDUs(payload, 6)                          // forces several packets

	ft := newFakeTransport(wire)
	buf := newTdsBuffer(ft, 4096)
	typ, err := buf.BeginRead()
	require.NoError(t, err)
	require.Equal(t, packReply, typ)

	var collected []byte
	for i := 0; i < len(payload); i++ {
		collected = append(collected, buf.byte())
	}
	require.Equal(t, payload, collected)
}

func TestReassemblyAllAtOnceViaView(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA, 0xBB}, 20)
	wire := buildReplyPDUs(payload, 9)

	ft := newFakeTransport(wire)
	buf := newTdsBuffer(ft, 4096)
	_, err := buf.BeginRead()
	require.NoError(t, err)

	got := buf.view(len(payload))
	require.Equal(t, payload, got)
}

// TestOutPlaceholder16Backpatch covers the tdsBuffer-native
// reserve/back-patch mechanism LOGIN7's offset/length table relies on
// (§4.C, login.go).
func TestOutPlaceholder16Backpatch(t *testing.T) {
	buf := newTdsBuffer(nil, defaultPacketSize)
	buf.BeginPacket(packSQLBatch)
	buf.WriteByte(0xAA)
	ph := buf.reserveUint16()
	buf.WriteByte(0xBB)
	ph.setLE(0x1234)

	require.Equal(t, []byte{0xAA, 0x34, 0x12, 0xBB}, buf.outBuf)
}

func TestOutPlaceholder32Backpatch(t *testing.T) {
	buf := newTdsBuffer(nil, defaultPacketSize)
	buf.BeginPacket(packSQLBatch)
	ph := buf.reserveUint32()
	buf.WriteBytes([]byte{1, 2, 3})
	ph.setLE(0xAABBCCDD)

	require.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA, 1, 2, 3}, buf.outBuf)
}

func TestBeginReadPreservesResidualBytesAcrossMessages(t *testing.T) {
	first := buildReplyPDUs([]byte{1, 2, 3, 4}, 100)
	second := buildReplyPDUs([]byte{5, 6, 7, 8}, 100)

	ft := newFakeTransport(append(first, second...))
	buf := newTdsBuffer(ft, 4096)

	_, err := buf.BeginRead()
	require.NoError(t, err)
	require.Equal(t, byte(1), buf.byte())
	// Leave 3 unread bytes residual, then start the next logical message.
	_, err = buf.BeginRead()
	require.NoError(t, err)

	var rest []byte
	for i := 0; i < 7; i++ {
		rest = append(rest, buf.byte())
	}
	require.Equal(t, []byte{2, 3, 4, 5, 6, 7, 8}, rest)
}
