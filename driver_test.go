package tdslite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildLoginAckReply(tdsVersion uint32) []byte {
	var ack []byte
	ack = append(ack, 1)
	ack = append(ack, byte(tdsVersion>>24), byte(tdsVersion>>16), byte(tdsVersion>>8), byte(tdsVersion))
	name := str2ucs2("mssql")
	ack = append(ack, byte(len(name)/2))
	ack = append(ack, name...)
	ack = append(ack, 0, 0, 0, 1)

	var body []byte
	body = append(body, byte(tokenLoginAck))
	size := uint16(len(ack))
	body = append(body, byte(size), byte(size>>8))
	body = append(body, ack...)

	body = append(body, byte(tokenDone))
	body = append(body, 0, 0, 0, 0)
	for i := 0; i < 8; i++ {
		body = append(body, 0)
	}
	return body
}

func buildPreloginOKReply() []byte {
	var reply []byte
	reply = append(reply, preloginEncryption, 0, 6, 0, 1)
	reply = append(reply, preloginTerminator)
	reply = append(reply, encryptNotSup)
	return reply
}

func TestDriverConnectLoginExecuteQuery(t *testing.T) {
	wire := append([]byte{}, buildReplyPDUs(buildPreloginOKReply(), 4096)...)
	wire = append(wire, buildReplyPDUs(buildLoginAckReply(tdsVersion72), 4096)...)
	wire = append(wire, buildReplyPDUs(buildColMetaAndRowsReply([]int32{1, 2}), 4096)...)

	ft := newFakeTransport(wire)
	d := NewDriverWithTransport(ft, DriverOptions{})

	require.NoError(t, d.Connect("example.invalid", 1433))

	status, err := d.Login(LoginParams{UserName: "sa", Password: "pw", ServerName: "example"})
	require.NoError(t, err)
	require.Equal(t, LoginSuccess, status)

	var rows []int64
	_, err = d.ExecuteQuery("select n", nil, ResultCallbacks{
		OnRow: func(r Row) { rows = append(rows, r[0].Int64()) },
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, rows)

	require.NoError(t, d.Disconnect())
}

func TestDriverRejectsQueryBeforeLogin(t *testing.T) {
	ft := newFakeTransport(nil)
	d := NewDriverWithTransport(ft, DriverOptions{})
	_, err := d.ExecuteQuery("select 1", nil, ResultCallbacks{})
	require.Equal(t, ErrNotAuthenticated, err)
}

func TestDriverSetInfoCallbackReceivesInfoMessages(t *testing.T) {
	var body []byte
	body = append(body, byte(tokenInfo))
	msg := []byte{}
	msg = append(msg, 1, 0, 0, 0) // number
	msg = append(msg, 0)          // state
	msg = append(msg, 1)          // class (informational)
	msg = append(msg, encodeUsVarChar("hello")...)
	msg = append(msg, encodeBVarChar("srv")...)
	msg = append(msg, encodeBVarChar("")...)
	msg = append(msg, 0, 0, 0, 0) // line number
	size := uint16(len(msg))
	body = append(body, byte(size), byte(size>>8))
	body = append(body, msg...)
	body = append(body, byte(tokenDone))
	body = append(body, 0, 0) // status
	body = append(body, 0, 0) // curcmd
	body = append(body, 0, 0, 0, 0, 0, 0, 0, 0) // row count (8 bytes, tds >= 7.2)

	wire := append([]byte{}, buildReplyPDUs(buildPreloginOKReply(), 4096)...)
	wire = append(wire, buildReplyPDUs(buildLoginAckReply(tdsVersion72), 4096)...)
	wire = append(wire, buildReplyPDUs(body, 4096)...)

	ft := newFakeTransport(wire)
	d := NewDriverWithTransport(ft, DriverOptions{})
	require.NoError(t, d.Connect("example.invalid", 1433))
	_, err := d.Login(LoginParams{UserName: "sa", Password: "pw"})
	require.NoError(t, err)

	var received []string
	d.SetInfoCallback(func(e ServerError) { received = append(received, e.Message) })

	_, err = d.ExecuteQuery("print 'hello'", nil, ResultCallbacks{})
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, received)
}
