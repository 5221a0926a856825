package tdslite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRowAllocatorReusesCapacity(t *testing.T) {
	a := NewPoolRowAllocator().(*poolRowAllocator)
	r := a.Get(2)
	require.Len(t, r, 2)
	a.Put(r)

	r2 := a.Get(2)
	require.Len(t, r2, 2)
}

// spyAllocator counts Get/Put calls so callers can assert execStream
// releases every row it hands to OnRow.
type spyAllocator struct {
	gets, puts int
}

func (a *spyAllocator) Get(n int) Row {
	a.gets++
	return make(Row, n)
}

func (a *spyAllocator) Put(r Row) {
	a.puts++
}

func TestExecSQLBatchReleasesRowsThroughAllocator(t *testing.T) {
	reply := buildColMetaAndRowsReply([]int32{1, 2, 3})
	wire := buildReplyPDUs(reply, 4096)
	ft := newFakeTransport(wire)
	sess := newSession(ft, defaultPacketSize, nil, 0)
	sess.tdsVersion = tdsVersion72

	spy := &spyAllocator{}
	sess.alloc = spy

	var seen int
	_, err := execSQLBatch(sess, "select n", ResultCallbacks{
		OnRow: func(r Row) { seen++ },
	})
	require.NoError(t, err)
	require.Equal(t, 3, seen)
	require.Equal(t, 3, spy.gets)
	require.Equal(t, 3, spy.puts)
}
