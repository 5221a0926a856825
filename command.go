package tdslite

// ALL_HEADERS header types (§4.E, only the transaction descriptor
// header is ever emitted: MARS and bulk-load headers are Non-goals).
const (
	allHeaderQueryNotif        = 1
	allHeaderTransDescriptor   = 2
	allHeaderTraceActivity     = 3
	totalHeaderLength     = 4 + 4 + 2 + 8 + 4 // length + txn-header-length + type + descriptor + outstanding-count
)

// Well-known system stored procedure ids usable in an RPC request in
// place of a procedure name (§4.E "RPC name/ProcID").
const (
	spCursor             uint16 = 1
	spCursorOpen         uint16 = 2
	spCursorPrepare      uint16 = 3
	spCursorExecute      uint16 = 4
	spCursorPrepExec     uint16 = 5
	spCursorUnprepare    uint16 = 6
	spCursorFetch        uint16 = 7
	spCursorOption       uint16 = 8
	spCursorClose        uint16 = 9
	spExecuteSQL         uint16 = 10
	spPrepare            uint16 = 11
	spExecute            uint16 = 12
	spPrepExec           uint16 = 13
	spPrepExecRPC        uint16 = 14
	spUnprepare          uint16 = 15
)

// writeAllHeaders emits the ALL_HEADERS prelude required ahead of a SQL
// batch or RPC payload on TDS 7.1+ (§4.E). The transaction descriptor is
// always zero and the outstanding request count is always 1, since
// transaction manager messages are an explicit Non-goal (§1).
func writeAllHeaders(buf *tdsBuffer) {
	buf.WriteUint32LE(totalHeaderLength)
	buf.WriteUint32LE(totalHeaderLength - 4)
	buf.WriteUint16LE(allHeaderTransDescriptor)
	buf.WriteUint64LE(0) // transaction descriptor
	buf.WriteUint32LE(1) // outstanding request count
}

// Row/DONE/message callbacks a Command invokes while draining a
// response stream (§4.D "result callback dispatch").
type ResultCallbacks struct {
	OnColumns func(columns []string)
	OnRow     func(row Row)
	OnMessage func(e ServerError)
	OnDone    func(rowsAffected uint64, status uint16)
}

// execResult is what execStream returns once the response stream is fully
// drained: the accumulated affected-row count, final RETURN status,
// any output parameters bound back from RETURNVALUE tokens, and the
// last server error (class >= 11) the batch reported (§4.D, §4.E, §9
// supplemented feature: output parameter propagation).
type execResult struct {
	RowsAffected uint64
	ReturnStatus int32
	OutputParams map[string]Field
	LastError    *ServerError
}

// execStream drains a response until the terminal DONE, dispatching
// decoded tokens to cb and accumulating the execResult. Grounded on the
// teacher's processSingleResponse dispatch loop, collapsed into the
// synchronous ResponseReader pull model used throughout this engine
// (§5).
func execStream(sess *Session, cb ResultCallbacks) (execResult, error) {
	rr, err := newResponseReader(sess)
	if err != nil {
		return execResult{}, err
	}
	var res execResult
	var colNames []string
	for {
		tok, err := rr.Next()
		if err != nil {
			return res, err
		}
		if tok == nil {
			return res, nil
		}
		switch {
		case tok.Columns != nil:
			colNames = make([]string, len(tok.Columns))
			for i, c := range tok.Columns {
				colNames[i] = c.name
			}
			if cb.OnColumns != nil {
				cb.OnColumns(colNames)
			}
		case tok.Row != nil:
			if cb.OnRow != nil {
				cb.OnRow(tok.Row)
			}
			rr.alloc.Put(tok.Row)
		case tok.ReturnStatus != nil:
			res.ReturnStatus = *tok.ReturnStatus
		case tok.ReturnValue != nil:
			if res.OutputParams == nil {
				res.OutputParams = make(map[string]Field)
			}
			res.OutputParams[tok.ReturnValue.Name] = tok.ReturnValue.Value
		case tok.Info != nil:
			if cb.OnMessage != nil {
				cb.OnMessage(*tok.Info)
			}
			if tok.Info.IsError() {
				e := *tok.Info
				res.LastError = &e
			}
		case tok.Done != nil:
			if tok.Done.Status&doneCount != 0 {
				res.RowsAffected += tok.Done.RowCount
			}
			if cb.OnDone != nil {
				cb.OnDone(tok.Done.RowCount, tok.Done.Status)
			}
			if len(tok.Done.errors) > 0 {
				e := tok.Done.errors[len(tok.Done.errors)-1]
				res.LastError = &e
			}
		}
	}
}

// execSQLBatch sends a plain SQL_BATCH request (ALL_HEADERS + UTF-16LE
// query text) and drains the response (§4.E "SQL batch").
func execSQLBatch(sess *Session, query string, cb ResultCallbacks) (execResult, error) {
	buf := sess.buf
	buf.BeginPacket(packSQLBatch)
	if sess.tdsVersion >= tdsVersion71 {
		writeAllHeaders(buf)
	}
	buf.WriteBytes(str2ucs2(query))
	if err := buf.FinishPacket(); err != nil {
		return execResult{}, err
	}
	return execStream(sess, cb)
}

// execRPC sends an RPC request identified either by name or by a
// well-known procedure id, with a list of bound parameters (§4.E "RPC
// request").
func execRPC(sess *Session, procName string, procID uint16, params []Param, cb ResultCallbacks) (execResult, error) {
	buf := sess.buf
	buf.BeginPacket(packRPCRequest)
	if sess.tdsVersion >= tdsVersion71 {
		writeAllHeaders(buf)
	}

	if procName != "" {
		buf.writeUsVarChar(procName)
	} else {
		buf.WriteUint16LE(0xFFFF)
		buf.WriteUint16LE(procID)
	}
	buf.WriteUint16LE(0) // option flags: no recompile, no no-metadata

	for _, p := range params {
		p.encode(buf)
	}

	if err := buf.FinishPacket(); err != nil {
		return execResult{}, err
	}
	return execStream(sess, cb)
}

// ExecuteSQL runs an ad-hoc SQL batch and, as a convenience, also
// exposes it as an sp_executesql RPC call when parameters are supplied
// (§9 supplemented feature: parameterized queries via sp_executesql,
// which the distilled spec omitted but the original driver relies on
// for anything beyond literal SQL text).
func ExecuteSQL(sess *Session, query string, params []Param, cb ResultCallbacks) (execResult, error) {
	if len(params) == 0 {
		return execSQLBatch(sess, query, cb)
	}
	declParts := make([]Param, 0, len(params)+2)
	declParts = append(declParts, NVarCharParam("stmt", query))
	declParts = append(declParts, NVarCharParam("params", declareParamList(params)))
	declParts = append(declParts, params...)
	return execRPC(sess, "", spExecuteSQL, declParts, cb)
}

// declareParamList builds the @params definition string passed to
// sp_executesql (§4.E). Output parameters must carry the OUTPUT keyword
// here as well as the by-ref status byte on the wire (§9 supplemented
// feature: output parameter propagation), or the server never writes
// the value back into the corresponding RETURNVALUE token.
func declareParamList(params []Param) string {
	s := ""
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += "@" + p.Name + " " + sqlTypeDecl(p)
		if p.Output {
			s += " OUTPUT"
		}
	}
	return s
}

func sqlTypeDecl(p Param) string {
	switch p.kind {
	case paramBit:
		return "bit"
	case paramTinyInt:
		return "tinyint"
	case paramSmallInt:
		return "smallint"
	case paramInt:
		return "int"
	case paramBigInt:
		return "bigint"
	case paramFloat4:
		return "real"
	case paramFloat8:
		return "float"
	case paramNVarChar:
		return "nvarchar(4000)"
	case paramVarChar:
		return "varchar(8000)"
	case paramNChar:
		return "nchar(4000)"
	case paramChar:
		return "char(8000)"
	case paramVarBinary:
		return "varbinary(8000)"
	case paramBinary:
		return "binary(8000)"
	case paramGUID:
		return "uniqueidentifier"
	default:
		return "sql_variant"
	}
}
