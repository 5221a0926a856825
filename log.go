package tdslite

import (
	"log"
	"os"
)

// Logger is satisfied by *log.Logger; callers that already have a
// structured logger can adapt it with a one-line shim.
type Logger interface {
	Printf(format string, v ...interface{})
}

// LogFlags gates which categories of diagnostic line a Session emits.
// Mirrors the granularity a production TDS client needs without paying
// for string formatting on the hot row-decode path unless asked.
type LogFlags uint32

const (
	LogErrors LogFlags = 1 << iota
	LogMessages
	LogRows
	LogDebug
	LogTransaction
)

var defaultLogger Logger = log.New(os.Stderr, "mssql: ", log.LstdFlags)
