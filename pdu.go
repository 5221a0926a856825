package tdslite

import "encoding/binary"

// packetType identifies the logical message type carried by a PDU
// header (§3).
type packetType uint8

const (
	packSQLBatch    packetType = 1
	packRPCRequest  packetType = 3
	packReply       packetType = 4
	packAttention   packetType = 6
	packBulkLoad    packetType = 7
	packTransMgrReq packetType = 14
	packLogin7      packetType = 16
	packSSPI        packetType = 17
	packPrelogin    packetType = 18
)

// Status bits of the PDU header (§3).
const (
	statusEOM               = 0x01 // end_of_message
	statusIgnore             = 0x02
	statusEvent             = 0x04
	statusResetConnection    = 0x08
	statusResetConnSkipTran = 0x10
)

// headerSize is the fixed 8-byte TDS PDU header size (§3).
const headerSize = 8

// pduHeader is the 8-byte, big-endian-length TDS PDU header.
type pduHeader struct {
	typ          packetType
	status       uint8
	length       uint16
	channel      uint16
	packetNumber uint8
	window       uint8
}

func (h pduHeader) encode() [headerSize]byte {
	var b [headerSize]byte
	b[0] = byte(h.typ)
	b[1] = h.status
	binary.BigEndian.PutUint16(b[2:4], h.length)
	binary.BigEndian.PutUint16(b[4:6], h.channel)
	b[6] = h.packetNumber
	b[7] = h.window
	return b
}

func decodeHeader(b []byte) pduHeader {
	if len(b) < headerSize {
		badStreamf("pdu header: got %d bytes, need %d", len(b), headerSize)
	}
	return pduHeader{
		typ:          packetType(b[0]),
		status:       b[1],
		length:       binary.BigEndian.Uint16(b[2:4]),
		channel:      binary.BigEndian.Uint16(b[4:6]),
		packetNumber: b[6],
		window:       b[7],
	}
}

// defaultPacketSize is the negotiated PDU size before login; it may be
// changed by an ENVCHANGE of subtype packet_size (§3).
const defaultPacketSize = 4096

const minPacketSize = 512
const maxPacketSize = 32767

// tdsBuffer is the PDU framer (component C of §4). It owns both the
// outbound payload-accumulation buffer and the inbound reassembly
// buffer, and is shared between the writer (framer) and the reader
// (token parser): the parser may only hold borrowed views into rbuf for
// the duration of a single handler invocation, and the framer must
// never refill rbuf while a handler is executing (§5).
type tdsBuffer struct {
	transport  Transport
	packetSize int

	// outbound
	outType  packetType
	outBuf   []byte
	packetNo uint8

	// inbound reassembly: rbuf[rpos:rsize] is the residual/accumulated
	// logical-message payload not yet consumed by the token parser.
	rbuf    []byte
	rpos    int
	rsize   int
	inType  packetType
	inMore  bool // current logical message has more packets to reassemble
}

func newTdsBuffer(transport Transport, packetSize int) *tdsBuffer {
	return &tdsBuffer{
		transport:  transport,
		packetSize: packetSize,
		rbuf:       make([]byte, 0, packetSize),
	}
}

// ResizeBuffer updates the negotiated PDU size, e.g. in response to an
// ENVCHANGE packet_size notification (§3, §4.F).
func (b *tdsBuffer) ResizeBuffer(n int) {
	if n < minPacketSize {
		n = minPacketSize
	}
	if n > maxPacketSize {
		n = maxPacketSize
	}
	b.packetSize = n
}

// --- outbound framing (§4.C) ---

// BeginPacket resets the payload accumulator for a new outbound logical
// message of the given type and resets the packet-number counter to 1
// (§3 invariants).
func (b *tdsBuffer) BeginPacket(typ packetType) {
	b.outType = typ
	b.outBuf = b.outBuf[:0]
	b.packetNo = 1
}

func (b *tdsBuffer) WriteBytes(p []byte) {
	b.outBuf = append(b.outBuf, p...)
}

func (b *tdsBuffer) WriteByte(v byte) {
	b.outBuf = append(b.outBuf, v)
}

func (b *tdsBuffer) WriteUint16LE(v uint16) {
	var t [2]byte
	binary.LittleEndian.PutUint16(t[:], v)
	b.WriteBytes(t[:])
}

func (b *tdsBuffer) WriteUint16BE(v uint16) {
	var t [2]byte
	binary.BigEndian.PutUint16(t[:], v)
	b.WriteBytes(t[:])
}

func (b *tdsBuffer) WriteUint32LE(v uint32) {
	var t [4]byte
	binary.LittleEndian.PutUint32(t[:], v)
	b.WriteBytes(t[:])
}

func (b *tdsBuffer) WriteUint32BE(v uint32) {
	var t [4]byte
	binary.BigEndian.PutUint32(t[:], v)
	b.WriteBytes(t[:])
}

func (b *tdsBuffer) WriteUint64LE(v uint64) {
	var t [8]byte
	binary.LittleEndian.PutUint64(t[:], v)
	b.WriteBytes(t[:])
}

// outPlaceholder16/32 reserve space in the outbound accumulator for a
// length or offset field whose value is only known once later writes
// have happened, operating directly on tdsBuffer.outBuf (§4.C, used by
// LOGIN7's offset/length table in login.go).
type outPlaceholder16 struct {
	buf    *tdsBuffer
	offset int
}

func (b *tdsBuffer) reserveUint16() outPlaceholder16 {
	p := outPlaceholder16{buf: b, offset: len(b.outBuf)}
	b.WriteUint16LE(0)
	return p
}

func (p outPlaceholder16) setLE(v uint16) {
	binary.LittleEndian.PutUint16(p.buf.outBuf[p.offset:p.offset+2], v)
}

type outPlaceholder32 struct {
	buf    *tdsBuffer
	offset int
}

func (b *tdsBuffer) reserveUint32() outPlaceholder32 {
	p := outPlaceholder32{buf: b, offset: len(b.outBuf)}
	b.WriteUint32LE(0)
	return p
}

func (p outPlaceholder32) setLE(v uint32) {
	binary.LittleEndian.PutUint32(p.buf.outBuf[p.offset:p.offset+4], v)
}

// outLen returns the number of bytes accumulated in the outbound
// payload so far, for computing offset fields (§4.C).
func (b *tdsBuffer) outLen() int { return len(b.outBuf) }

// FinishPacket splits the accumulated payload into packets of at most
// packetSize-headerSize bytes, frames and sends each in turn, setting
// end_of_message only on the last (§4.C).
func (b *tdsBuffer) FinishPacket() error {
	chunk := b.packetSize - headerSize
	if chunk <= 0 {
		return ErrBufferTooSmall
	}
	payload := b.outBuf
	if len(payload) == 0 {
		payload = []byte{}
	}
	for {
		n := len(payload)
		last := true
		if n > chunk {
			n = chunk
			last = false
		}
		status := uint8(0)
		if last {
			status = statusEOM
		}
		hdr := pduHeader{
			typ:          b.outType,
			status:       status,
			length:       uint16(headerSize + n),
			channel:      0,
			packetNumber: b.packetNo,
			window:       0,
		}
		encoded := hdr.encode()
		if err := b.transport.Send(encoded[:], payload[:n]); err != nil {
			return err
		}
		pdusTotal.WithLabelValues("out", packetTypeName(b.outType)).Inc()
		bytesTotal.WithLabelValues("out").Add(float64(headerSize + n))
		b.packetNo++
		payload = payload[n:]
		if last {
			return nil
		}
	}
}

// --- inbound reassembly (§4.C) ---

// BeginRead reads the first packet of a new logical message, returning
// its packet type. Any residual bytes from a previous message that were
// never consumed are preserved ahead of the new message's payload.
func (b *tdsBuffer) BeginRead() (packetType, error) {
	b.compact()
	typ, more, err := b.readOnePacket()
	if err != nil {
		return 0, err
	}
	b.inType = typ
	b.inMore = more
	return typ, nil
}

// readAtLeast ensures at least n more unread bytes are available
// starting at rpos, pulling additional packets of the same logical
// message as needed (§4.C "streaming variant").
func (b *tdsBuffer) readAtLeast(n int) {
	for b.rsize-b.rpos < n {
		if !b.inMore {
			badStreamf("token parser requested %d bytes past end of message", n)
		}
		typ, more, err := b.readOnePacket()
		if err != nil {
			badStream(err)
		}
		if typ != b.inType {
			badStreamf("packet type changed mid-message: got %d, expected %d", typ, b.inType)
		}
		b.inMore = more
	}
}

// readOnePacket reads exactly one PDU (header + payload) from the
// transport and appends its payload to rbuf.
func (b *tdsBuffer) readOnePacket() (packetType, bool, error) {
	var hdrBytes [headerSize]byte
	if err := b.transport.RecvExactInto(hdrBytes[:]); err != nil {
		return 0, false, err
	}
	hdr := decodeHeader(hdrBytes[:])
	if hdr.length < headerSize {
		badStreamf("invalid pdu length %d", hdr.length)
	}
	bodyLen := int(hdr.length) - headerSize
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if err := b.transport.RecvExactInto(body); err != nil {
			return 0, false, err
		}
	}
	pdusTotal.WithLabelValues("in", packetTypeName(hdr.typ)).Inc()
	bytesTotal.WithLabelValues("in").Add(float64(hdr.length))
	b.rbuf = append(b.rbuf, body...)
	b.rsize = len(b.rbuf)
	return hdr.typ, hdr.status&statusEOM == 0, nil
}

// compact drops already-consumed bytes at the head of rbuf, keeping
// only the residual tail for the next logical message (§3 invariant:
// "at most one in-flight message plus any residual bytes").
func (b *tdsBuffer) compact() {
	if b.rpos == 0 {
		return
	}
	b.rbuf = append(b.rbuf[:0], b.rbuf[b.rpos:b.rsize]...)
	b.rsize = len(b.rbuf)
	b.rpos = 0
}

// mark returns the current read position and rewind restores one;
// processEnvChange uses mark to measure how many body bytes it consumed.
// The token parser does not rewind: short reads block in readAtLeast.
func (b *tdsBuffer) mark() int { return b.rpos }

func (b *tdsBuffer) rewind(pos int) { b.rpos = pos }

func (b *tdsBuffer) remaining() int { return b.rsize - b.rpos }

// --- typed reads off the inbound buffer, refilling transparently ---

func (b *tdsBuffer) byte() byte {
	b.readAtLeast(1)
	v := b.rbuf[b.rpos]
	b.rpos++
	return v
}

func (b *tdsBuffer) uint16() uint16 {
	b.readAtLeast(2)
	v := binary.LittleEndian.Uint16(b.rbuf[b.rpos : b.rpos+2])
	b.rpos += 2
	return v
}

func (b *tdsBuffer) uint16BE() uint16 {
	b.readAtLeast(2)
	v := binary.BigEndian.Uint16(b.rbuf[b.rpos : b.rpos+2])
	b.rpos += 2
	return v
}

func (b *tdsBuffer) uint32() uint32 {
	b.readAtLeast(4)
	v := binary.LittleEndian.Uint32(b.rbuf[b.rpos : b.rpos+4])
	b.rpos += 4
	return v
}

func (b *tdsBuffer) uint32BE() uint32 {
	b.readAtLeast(4)
	v := binary.BigEndian.Uint32(b.rbuf[b.rpos : b.rpos+4])
	b.rpos += 4
	return v
}

func (b *tdsBuffer) uint64() uint64 {
	b.readAtLeast(8)
	v := binary.LittleEndian.Uint64(b.rbuf[b.rpos : b.rpos+8])
	b.rpos += 8
	return v
}

func (b *tdsBuffer) int32() int32 {
	return int32(b.uint32())
}

// view returns a borrowed slice of the next n bytes and advances rpos.
// The slice aliases rbuf and is only valid until the buffer is refilled
// or compacted; callers that must retain the data copy it out (§3, §5).
func (b *tdsBuffer) view(n int) []byte {
	b.readAtLeast(n)
	v := b.rbuf[b.rpos : b.rpos+n]
	b.rpos += n
	return v
}

// ReadFull copies exactly len(dst) bytes from the inbound buffer into dst.
func (b *tdsBuffer) ReadFull(dst []byte) {
	copy(dst, b.view(len(dst)))
}

func packetTypeName(t packetType) string {
	switch t {
	case packSQLBatch:
		return "sql_batch"
	case packRPCRequest:
		return "rpc"
	case packReply:
		return "reply"
	case packAttention:
		return "attention"
	case packBulkLoad:
		return "bulk_load"
	case packTransMgrReq:
		return "trans_mgr"
	case packLogin7:
		return "login7"
	case packSSPI:
		return "sspi"
	case packPrelogin:
		return "prelogin"
	default:
		return "unknown"
	}
}
