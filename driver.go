package tdslite

import "time"

// Driver is the top-level façade a caller drives: Connect, Login, run
// queries, Disconnect (§3 "Driver"). It owns exactly one Session and
// enforces the not_authenticated precondition on every operation that
// needs an authenticated connection.
type Driver struct {
	sess         *Session
	transport    Transport
	infoCallback func(ServerError)
}

// DriverOptions configures a new Driver (§6 ambient configuration).
type DriverOptions struct {
	PacketSize   int
	Logger       Logger
	LogFlags     LogFlags
	DialTimeout  time.Duration
	RowAllocator RowAllocator // defaults to NewPoolRowAllocator() when nil
}

// NewDriver constructs a Driver over a fresh netTransport. Callers that
// need a custom Transport (e.g. for testing against an in-memory pipe)
// should use NewDriverWithTransport instead.
func NewDriver(opts DriverOptions) *Driver {
	return NewDriverWithTransport(NewTCPTransport(opts.DialTimeout), opts)
}

// NewDriverWithTransport constructs a Driver over a caller-supplied
// Transport (§6: the engine never learns its concrete type).
func NewDriverWithTransport(t Transport, opts DriverOptions) *Driver {
	packetSize := opts.PacketSize
	if packetSize == 0 {
		packetSize = defaultPacketSize
	}
	sess := newSession(t, packetSize, opts.Logger, opts.LogFlags)
	if opts.RowAllocator != nil {
		sess.alloc = opts.RowAllocator
	}
	return &Driver{
		sess:      sess,
		transport: t,
	}
}

// Connect dials host:port and runs the PRELOGIN handshake (§4.F steps
// 1-2).
func (d *Driver) Connect(host string, port uint16) error {
	if err := d.transport.Connect(host, port); err != nil {
		return ErrConnectFailed
	}
	d.sess.setState(stateConnected)
	if err := doPrelogin(d.sess); err != nil {
		d.sess.setState(stateFailed)
		return err
	}
	return nil
}

// Login runs the LOGIN7 handshake over an already-Connected session
// (§4.F steps 3-5).
func (d *Driver) Login(p LoginParams) (LoginStatus, error) {
	if d.sess.getState() != stateConnected {
		return LoginFailure, ErrNotAuthenticated
	}
	return doLogin(d.sess, p)
}

// SetInfoCallback installs a handler invoked for every informational
// (non-error, class <= 10) server message observed during query execution (§4.D
// INFO token, §9 supplemented feature: print/raiserror surfacing).
func (d *Driver) SetInfoCallback(cb func(ServerError)) {
	d.infoCallback = cb
}

func (d *Driver) wrapCallbacks(cb ResultCallbacks) ResultCallbacks {
	if d.infoCallback == nil {
		return cb
	}
	userOnMessage := cb.OnMessage
	cb.OnMessage = func(e ServerError) {
		if !e.IsError() {
			d.infoCallback(e)
		}
		if userOnMessage != nil {
			userOnMessage(e)
		}
	}
	return cb
}

// ExecuteQuery runs an ad-hoc SQL batch (optionally parameterized via
// sp_executesql) and streams rows through cb (§4.E).
func (d *Driver) ExecuteQuery(query string, params []Param, cb ResultCallbacks) (execResult, error) {
	if !d.sess.IsAuthenticated() {
		return execResult{}, ErrNotAuthenticated
	}
	return ExecuteSQL(d.sess, query, params, d.wrapCallbacks(cb))
}

// ExecuteRPC calls a stored procedure by name with bound parameters
// (§4.E "RPC request").
func (d *Driver) ExecuteRPC(procName string, params []Param, cb ResultCallbacks) (execResult, error) {
	if !d.sess.IsAuthenticated() {
		return execResult{}, ErrNotAuthenticated
	}
	return execRPC(d.sess, procName, 0, params, d.wrapCallbacks(cb))
}

// LastReturnStatus returns the most recent stored-procedure RETURN
// value observed on this connection.
func (d *Driver) LastReturnStatus() int32 {
	return d.sess.LastReturnStatus()
}

// Database returns the current database name, as last reported by an
// ENVCHANGE of subtype database (§3 "Session state").
func (d *Driver) Database() string {
	return d.sess.database
}

// Disconnect tears down the transport (§3 "Lifecycle").
func (d *Driver) Disconnect() error {
	d.sess.setState(stateClosed)
	return d.transport.Disconnect()
}
