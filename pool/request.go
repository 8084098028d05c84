package pool

import (
	"container/list"
	"sync"
	"time"
)

type terminalState int

const (
	reqPending terminalState = iota
	reqCompleted
	reqFailed
	reqCancelled
)

// LeaseCallback receives the same outcome as the Future returned by
// Pool.Lease, delivered from the same fireCallbacks drain. Optional —
// pass nil if only the Future is needed.
type LeaseCallback[R comparable, C Connection] interface {
	Completed(e *Entry[R, C])
	Failed(err error)
	Cancelled()
}

// leaseRequest is a one-shot record tying a caller's Future to the
// route/state it asked for, a deadline, and its eventual terminal outcome.
// Transitions only ever go pending -> terminal; terminal is sticky.
type leaseRequest[R comparable, C Connection] struct {
	route          R
	state          any
	deadline       time.Time // zero value means unbounded
	connectTimeout time.Duration
	future         *Future[R, C]
	cb             LeaseCallback[R, C]

	term  terminalState
	entry *Entry[R, C]
	err   error

	// waitElem is this request's element in Pool.waiting while term ==
	// reqPending and it hasn't been advanced into a pending connect.
	waitElem *list.Element
}

// completedQueue is a small mutex-guarded slice standing in for the spec's
// lock-free MPSC completion queue. See SPEC_FULL.md/DESIGN.md: the property
// that matters (futures resolve outside Pool.mu, so re-entrant callbacks
// can't deadlock) holds regardless of whether the queue itself is lock-free.
// push takes this lock briefly while Pool.mu is held; drain never takes
// Pool.mu, and this lock is never held across a callback invocation.
type completedQueue[R comparable, C Connection] struct {
	mu    sync.Mutex
	items []*leaseRequest[R, C]
}

func newCompletedQueue[R comparable, C Connection]() *completedQueue[R, C] {
	return &completedQueue[R, C]{}
}

func (q *completedQueue[R, C]) push(req *leaseRequest[R, C]) {
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()
}

func (q *completedQueue[R, C]) drain() []*leaseRequest[R, C] {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}
