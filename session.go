package tdslite

import "sync/atomic"

// sessionState is the lifecycle of a Session (§3 "Lifecycle").
type sessionState int32

const (
	stateIdle sessionState = iota
	stateConnected
	stateAuthenticated
	stateFailed
	stateClosed
)

// Session holds all per-connection protocol state: the transport, the
// PDU framer/reassembly buffer, negotiated version/packet size,
// authentication flag, current database, collation, and the most
// recently received column table (§3 "Session state").
type Session struct {
	transport Transport
	buf       *tdsBuffer

	tdsVersion  uint32
	packetSize  int
	database    string
	collation   [5]byte
	partner     string

	routedServer string
	routedPort   uint16

	columns []columnStruct
	lastReturnStatus int32

	logger   Logger
	logFlags LogFlags

	alloc RowAllocator

	state atomic.Int32
}

func newSession(transport Transport, packetSize int, logger Logger, flags LogFlags) *Session {
	if logger == nil {
		logger = defaultLogger
	}
	s := &Session{
		transport:  transport,
		buf:        newTdsBuffer(transport, packetSize),
		packetSize: packetSize,
		logger:     logger,
		logFlags:   flags,
		alloc:      NewPoolRowAllocator(),
	}
	s.state.Store(int32(stateIdle))
	return s
}

func (s *Session) setState(st sessionState) { s.state.Store(int32(st)) }

func (s *Session) getState() sessionState { return sessionState(s.state.Load()) }

func (s *Session) IsAuthenticated() bool { return s.getState() == stateAuthenticated }

func (s *Session) logf(flag LogFlags, format string, args ...interface{}) {
	if s.logFlags&flag != 0 {
		s.logger.Printf(format, args...)
	}
}

func (s *Session) setReturnStatus(v int32) { s.lastReturnStatus = v }

// LastReturnStatus returns the most recent stored-procedure RETURN
// value observed on this session (§4.D RETURNSTATUS, §9 supplemented
// feature 2).
func (s *Session) LastReturnStatus() int32 { return s.lastReturnStatus }
