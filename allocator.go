package tdslite

import "sync"

// RowAllocator lets a caller control how Row slices are obtained and
// released across a long-running scan, instead of paying one
// allocation per row (§9 design note: injectable allocator).
// ResponseReader.Next calls Get to materialize each ROW/NBCROW, and
// execStream calls Put once the row has been handed to the caller's
// OnRow callback, since callers must not retain a Row past that call
// (its Fields borrow views into the session's receive buffer).
type RowAllocator interface {
	Get(n int) Row
	Put(r Row)
}

// poolRowAllocator is the default RowAllocator: a sync.Pool keyed by
// nothing in particular, since Row capacity varies per query; rows
// whose capacity covers the request are reused as-is.
type poolRowAllocator struct {
	pool sync.Pool
}

// NewPoolRowAllocator returns the default sync.Pool-backed RowAllocator.
func NewPoolRowAllocator() RowAllocator {
	return &poolRowAllocator{
		pool: sync.Pool{New: func() interface{} { return Row(nil) }},
	}
}

func (a *poolRowAllocator) Get(n int) Row {
	r, _ := a.pool.Get().(Row)
	if cap(r) < n {
		return make(Row, n)
	}
	return r[:n]
}

func (a *poolRowAllocator) Put(r Row) {
	a.pool.Put(r[:0])
}
