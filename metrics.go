package tdslite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Instrumentation the engine emits on its own, independent of any
// caller-supplied Logger. Labelled by pdu type / token type so a single
// process hosting several sessions still gets a useful breakdown.
var (
	pdusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_pdus_total",
		Help: "Total TDS PDU packets framed or reassembled",
	}, []string{"direction", "pdu_type"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_bytes_total",
		Help: "Total bytes sent or received over the transport",
	}, []string{"direction"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_tokens_total",
		Help: "Total tokens decoded from server response streams",
	}, []string{"token"})

	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_rows_total",
		Help: "Total ROW/NBCROW tokens materialized into callbacks",
	}, []string{})

	serverErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_server_errors_total",
		Help: "Total ERROR tokens received from the server",
	}, []string{})

	protocolErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdslite_protocol_errors_total",
		Help: "Total fatal protocol framing/token errors encountered",
	}, []string{})
)
