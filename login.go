package tdslite

// TDS protocol version constants (§6).
const (
	tdsVersion70    uint32 = 0x00000070
	tdsVersion71    uint32 = 0x00000071
	tdsVersion71SP1 uint32 = 0x01000071
	tdsVersion72    uint32 = 0x02000972
	tdsVersion73    uint32 = 0x03000A73
	tdsVersion73R2  uint32 = 0x03000B73
	tdsVersion74    uint32 = 0x04000074
)

// PRELOGIN option ids (§4.F).
const (
	preloginVersion    = 0
	preloginEncryption = 1
	preloginInstOpt    = 2
	preloginThreadID   = 3
	preloginMARS       = 4
	preloginTerminator = 0xFF
)

// PRELOGIN encryption byte values.
const (
	encryptOff    = 0
	encryptOn     = 1
	encryptNotSup = 2
	encryptReq    = 3
)

// LOGIN7 option_flags_1/2/type_flags/option_flags_3 bit layouts. Named
// explicitly per field rather than assembled from an implementation-
// defined bitfield struct (§9).
const (
	optionFlags1Defaults = 0x00 // x86 byte order, ASCII charset, IEEE-754 floats, dump/load on, no use-db/init-db/set-lang warnings

	optionFlags2Defaults = 0x00 // no integrated security, regular user

	typeFlagsSQLDfltTSQL = 0x08 // sql_type = SQL_TSQL in bits[0:3]

	optionFlags3Defaults = 0x00
)

// LoginParams is the full set of Login parameters (§3).
type LoginParams struct {
	ServerName  string
	UserName    string
	Password    string
	ClientName  string
	AppName     string
	LibraryName string
	DBName      string
	ClientHost  string
	Language    string
	PacketSize  int
	TDSVersion  uint32
}

func (p *LoginParams) applyDefaults() {
	if p.PacketSize == 0 {
		p.PacketSize = defaultPacketSize
	}
	if p.TDSVersion == 0 {
		p.TDSVersion = tdsVersion71
	}
	if p.LibraryName == "" {
		p.LibraryName = "tdslite-go"
	}
	if p.AppName == "" {
		p.AppName = "tdslite-go"
	}
	if p.ClientName == "" {
		p.ClientName = "tdslite-go"
	}
}

// LoginStatus is the final outcome of the login state machine (§4.F).
type LoginStatus int

const (
	LoginFailure LoginStatus = iota
	LoginSuccess
)

// obfuscate applies the TDS LOGIN7 password transform to raw UTF-16LE
// bytes: swap the high and low nibbles of each byte, then XOR with
// 0xA5 (§4.F step 4, §8 scenario 6).
func obfuscate(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		swapped := (c << 4) | (c >> 4)
		out[i] = swapped ^ 0xA5
	}
	return out
}

// deobfuscate reverses obfuscate: XOR with 0xA5 first, then swap
// nibbles (§8 round-trip property).
func deobfuscate(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		x := c ^ 0xA5
		out[i] = (x << 4) | (x >> 4)
	}
	return out
}

// preloginEntry is one decoded option/offset/length row of a PRELOGIN
// message (§4.F step 1).
type preloginEntry struct {
	id     byte
	offset uint16
	length uint16
}

// doPrelogin emits the PRELOGIN message and interprets the response,
// failing with ErrEncryptionNotSup if the server demands encryption
// this engine never offers (§1 Non-goals, §4.F steps 1-2).
func doPrelogin(sess *Session) error {
	version := []byte{0, 0, 0, 1, 0, 0} // major, minor, build_hi, build_lo, subbuild_lo, subbuild_hi
	encryption := []byte{encryptNotSup}
	instopt := []byte{0}
	threadID := []byte{0, 0, 0, 0}
	mars := []byte{0}

	options := [][]byte{version, encryption, instopt, threadID, mars}
	optionIDs := []byte{preloginVersion, preloginEncryption, preloginInstOpt, preloginThreadID, preloginMARS}

	buf := sess.buf
	buf.BeginPacket(packPrelogin)

	// PRELOGIN's offset/length table fields are big-endian on the wire
	// (unlike the rest of TDS, which is little-endian throughout).
	offset := len(options)*5 + 1
	for i, opt := range options {
		buf.WriteByte(optionIDs[i])
		buf.WriteUint16BE(uint16(offset))
		buf.WriteUint16BE(uint16(len(opt)))
		offset += len(opt)
	}
	buf.WriteByte(preloginTerminator)
	for _, opt := range options {
		buf.WriteBytes(opt)
	}
	if err := buf.FinishPacket(); err != nil {
		return err
	}

	typ, err := buf.BeginRead()
	if err != nil {
		return err
	}
	if typ != packReply {
		return &ProtocolError{msg: "unexpected packet type in prelogin reply"}
	}

	var entries []preloginEntry
	for {
		id := buf.byte()
		if id == preloginTerminator {
			break
		}
		off := buf.uint16BE()
		l := buf.uint16BE()
		entries = append(entries, preloginEntry{id, off, l})
	}

	// Option payloads follow the terminator in table order; each
	// entry's declared length tells us how many bytes to consume.
	for _, e := range entries {
		val := buf.view(int(e.length))
		if e.id == preloginEncryption && e.length >= 1 {
			if val[0] != encryptNotSup && val[0] != encryptOff {
				return ErrEncryptionNotSup
			}
		}
	}
	return nil
}

// doLogin builds and sends LOGIN7, then drives the response stream to
// a final LoginStatus (§4.F steps 3-5).
func doLogin(sess *Session, p LoginParams) (LoginStatus, error) {
	p.applyDefaults()
	sess.tdsVersion = p.TDSVersion
	sess.packetSize = p.PacketSize
	sess.buf.ResizeBuffer(p.PacketSize)

	buf := sess.buf
	buf.BeginPacket(packLogin7)

	lengthPH := buf.reserveUint32()

	buf.WriteUint32BE(p.TDSVersion)
	buf.WriteUint32LE(uint32(p.PacketSize))
	buf.WriteUint32LE(0x01000000) // client program version
	buf.WriteUint32LE(0)          // client PID
	buf.WriteUint32LE(0)          // connection id

	buf.WriteByte(optionFlags1Defaults)
	buf.WriteByte(optionFlags2Defaults)
	buf.WriteByte(typeFlagsSQLDfltTSQL)
	buf.WriteByte(optionFlags3Defaults)

	buf.WriteUint32LE(0) // client time zone
	buf.WriteUint32LE(0) // client LCID

	// String fields in LOGIN7 wire order. The password is obfuscated
	// separately below; every other field is plain UTF-16LE.
	strs := []string{
		p.ClientHost, p.UserName, p.Password, p.AppName, p.ServerName,
		"", // reserved extension field, always empty
		p.LibraryName, p.Language, p.DBName,
	}

	type offLen struct {
		off outPlaceholder16
		len outPlaceholder16
	}
	fields := make([]offLen, len(strs))
	for i := range strs {
		fields[i] = offLen{buf.reserveUint16(), buf.reserveUint16()}
	}

	// ClientID is a fixed 6-byte field in the LOGIN7 header, between the
	// database offset/length pair and the SSPI offset/length pair, not
	// part of the variable-length string table below.
	buf.WriteBytes(make([]byte, 6)) // NIC address, unavailable in this engine
	sspiOffPH, sspiLenPH := buf.reserveUint16(), buf.reserveUint16()
	attachOffPH, attachLenPH := buf.reserveUint16(), buf.reserveUint16()
	chpwOffPH, chpwLenPH := buf.reserveUint16(), buf.reserveUint16()
	buf.WriteUint32LE(0) // unused (long SSPI)

	encoded := make([][]byte, len(strs))
	for i, s := range strs {
		if i == 2 {
			encoded[i] = obfuscate(str2ucs2(s))
			continue
		}
		encoded[i] = str2ucs2(s)
	}

	off := buf.outLen()
	for i, enc := range encoded {
		fields[i].off.setLE(uint16(off))
		fields[i].len.setLE(uint16(len(enc) / 2))
		buf.WriteBytes(enc)
		off += len(enc)
	}

	sspiOffPH.setLE(uint16(off))
	sspiLenPH.setLE(0)
	attachOffPH.setLE(uint16(off))
	attachLenPH.setLE(0)
	chpwOffPH.setLE(uint16(off))
	chpwLenPH.setLE(0)

	lengthPH.setLE(uint32(buf.outLen()))

	if err := buf.FinishPacket(); err != nil {
		return LoginFailure, err
	}
	return readLoginResponse(sess)
}

func readLoginResponse(sess *Session) (LoginStatus, error) {
	rr, err := newResponseReader(sess)
	if err != nil {
		return LoginFailure, err
	}
	gotLoginAck := false
	gotDone := false
	var lastErr *ServerError
	for {
		res, err := rr.Next()
		if err != nil {
			return LoginFailure, err
		}
		if res == nil {
			break
		}
		switch {
		case res.LoginAck != nil:
			gotLoginAck = true
			sess.tdsVersion = res.LoginAck.TDSVersion
		case res.Info != nil && res.Info.IsError():
			e := *res.Info
			lastErr = &e
		case res.Done != nil:
			if res.Done.Status&doneMore == 0 {
				gotDone = true
			}
		}
	}
	if !gotLoginAck || !gotDone || (lastErr != nil && lastErr.IsFatal()) {
		sess.setState(stateFailed)
		if lastErr != nil {
			return LoginFailure, *lastErr
		}
		return LoginFailure, ErrLoginFailed
	}
	sess.setState(stateAuthenticated)
	return LoginSuccess, nil
}
