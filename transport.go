package tdslite

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Transport is the external collaborator the engine consumes for raw
// byte I/O (§6). It is supplied by the caller; the engine never learns
// its concrete type. A transport implementation is free to poll, block,
// or use event-driven I/O underneath so long as RecvExactInto does not
// return until exactly n bytes have been delivered, and Send completes
// synchronously.
type Transport interface {
	// Connect dials host:port. Returns ErrAlreadyConnected if already
	// connected, ErrConnectFailed (wrapping the underlying cause)
	// otherwise.
	Connect(host string, port uint16) error

	// Disconnect tears down the connection. A transport that was never
	// connected returns an error.
	Disconnect() error

	// Send writes header and body as a single logical write; a real
	// implementation may use scatter-gather (writev) to avoid copying
	// the two into one buffer.
	Send(header, body []byte) error

	// RecvExactInto blocks until exactly len(dst) bytes have been read
	// into dst, or an error occurs.
	RecvExactInto(dst []byte) error
}

// netTransport is the default Transport, wrapping a net.Conn. The core
// engine holds it only through the Transport interface and never
// inspects its fields (§9: "type-erased smart pointer" replaced by an
// opaque, implementation-owned state type behind the trait).
type netTransport struct {
	conn    net.Conn
	timeout time.Duration
}

// NewTCPTransport returns a Transport that dials over plain TCP. dialTimeout
// of zero disables the dial deadline.
func NewTCPTransport(dialTimeout time.Duration) Transport {
	return &netTransport{timeout: dialTimeout}
}

func (t *netTransport) Connect(host string, port uint16) error {
	if t.conn != nil {
		return ErrAlreadyConnected
	}
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, t.timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	t.conn = conn
	return nil
}

func (t *netTransport) Disconnect() error {
	if t.conn == nil {
		return DriverError("mssql: transport not connected")
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *netTransport) Send(header, body []byte) error {
	if _, err := t.conn.Write(header); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := t.conn.Write(body)
	return err
}

func (t *netTransport) RecvExactInto(dst []byte) error {
	_, err := io.ReadFull(t.conn, dst)
	return err
}
