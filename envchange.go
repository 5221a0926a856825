package tdslite

// ENVCHANGE subtypes (§3, §4.D). Grounded on token.go's processEnvChg;
// transaction-manager-related subtypes (begin/commit/rollback/enlist/
// defect/promote transaction, transaction manager address/ended) are
// skipped by declared length only, since transaction manager messages
// are an explicit Non-goal (spec.md §1).
const (
	envTypDatabase         = 1
	envTypLanguage         = 2
	envTypCharset          = 3
	envTypPacketSize       = 4
	envSortID              = 5
	envSortFlags           = 6
	envSQLCollation        = 7
	envResetConnAck        = 18
	envStartedInstanceName = 19
	envRouting             = 20
)

// processEnvChange decodes a single ENVCHANGE token body (the u16
// length prefix has already been consumed by the caller) and applies
// any subtype the engine understands to sess. Unknown subtypes cannot
// be decoded generically (ENVCHANGE framing is subtype-dependent), so
// for one of those only the subtype byte is read and the rest of the
// token body is skipped using the declared bodyLen.
func processEnvChange(buf *tdsBuffer, sess *Session, bodyLen int) {
	start := buf.mark()
	envType := buf.byte()
	switch envType {
	case envTypDatabase:
		sess.database = buf.bVarChar()
		_ = buf.bVarChar() // old value
	case envTypLanguage, envTypCharset:
		_ = buf.bVarChar() // new value
		_ = buf.bVarChar() // old value
	case envTypPacketSize:
		newVal := buf.bVarChar()
		_ = buf.bVarChar() // old value
		n := atoiOrPanic(newVal)
		sess.packetSize = n
		sess.buf.ResizeBuffer(n)
	case envSortID, envSortFlags:
		_ = buf.bVarChar()
		_ = buf.bVarChar()
	case envSQLCollation:
		size := int(buf.byte())
		if size != 5 {
			badStreamf("invalid sql collation size: %d", size)
		}
		buf.ReadFull(sess.collation[:])
		_ = buf.bVarByte() // old value
	case envResetConnAck:
		_ = buf.bVarByte()
		_ = buf.bVarByte()
	case envStartedInstanceName:
		_ = buf.bVarByte()
		_ = buf.bVarChar()
	case envRouting:
		_ = buf.uint16() // value length
		protocol := buf.byte()
		if protocol != 0 {
			badStreamf("unsupported routing protocol %d", protocol)
		}
		sess.routedPort = buf.uint16()
		sess.routedServer = buf.usVarChar()
		_ = buf.uint16() // old value, always zero-length
	default:
		sess.logf(LogErrors, "WARN: unknown ENVCHANGE subtype %d, skipping token", envType)
	}
	// Regardless of which branch ran (including the unknown-subtype
	// fallthrough), make sure the cursor lands exactly at the token
	// boundary the declared length promised (§3 invariant).
	consumed := buf.mark() - start
	if consumed < bodyLen {
		buf.view(bodyLen - consumed)
	} else if consumed > bodyLen {
		badStreamf("envchange: consumed %d bytes, declared length was %d", consumed, bodyLen)
	}
}

func atoiOrPanic(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			badStreamf("invalid packet size value from server: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n
}
