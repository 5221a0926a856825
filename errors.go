package tdslite

import "fmt"

// ServerError is a message surfaced by the server through an INFO or
// ERROR token. Class >= 11 indicates an error; class >= 14 additionally
// fails a login (see login.go). command.go records the last error of
// class >= 11 in execResult.LastError without failing the call.
type ServerError struct {
	Number     int32
	State      uint8
	Class      uint8
	Message    string
	ServerName string
	ProcName   string
	LineNo     int32
}

func (e ServerError) Error() string {
	return fmt.Sprintf("mssql: %s (number=%d class=%d state=%d)", e.Message, e.Number, e.Class, e.State)
}

// IsError reports whether the class of this message marks it as an
// error rather than an informational message (§7: INFO class <= 10,
// ERROR class >= 11).
func (e ServerError) IsError() bool {
	return e.Class >= 11
}

// IsFatal reports whether this error additionally fails the operation
// that produced it (§4.F, §7: class >= 14).
func (e ServerError) IsFatal() bool {
	return e.Class >= 14
}

// ProtocolError marks a framing or token-boundary violation: malformed
// header, length overflow, out-of-order packet, or a token whose
// declared length exceeds the remaining logical-message bytes. These
// are always terminal for the session (§7).
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string {
	return "mssql: protocol error: " + e.msg
}

func badStream(err error) {
	panic(&ProtocolError{msg: err.Error()})
}

func badStreamf(format string, args ...interface{}) {
	panic(&ProtocolError{msg: fmt.Sprintf(format, args...)})
}

// DriverError is a library-level failure that is not a server message
// or protocol framing violation (§6/§7).
type DriverError string

func (e DriverError) Error() string { return string(e) }

const (
	ErrConnectFailed    DriverError = "mssql: connect failed"
	ErrLoginFailed      DriverError = "mssql: login failed"
	ErrSendFailed       DriverError = "mssql: send failed"
	ErrRecvFailed       DriverError = "mssql: recv failed"
	ErrBufferTooSmall   DriverError = "mssql: message does not fit in receive buffer"
	ErrNotAuthenticated DriverError = "mssql: session is not authenticated"
	ErrEncryptionNotSup DriverError = "mssql: server requires encryption, which this engine does not implement"
	ErrAlreadyConnected DriverError = "mssql: transport already connected"
)

// Well-known SQL Server error numbers surfaced through ServerError.Number.
const (
	SQLErrorLogonFailed = 18456
)
