// Package pool implements a non-blocking, route-partitioned connection
// pool: callers lease reusable connections keyed by an opaque route (and an
// optional state discriminator), the pool opens new connections through an
// injected, asynchronous ConnectionInitiator when nothing idle matches, and
// per-route plus global concurrency caps are enforced by evicting idle
// entries rather than ever blocking a caller's goroutine.
package pool

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// pendingConnect links an outstanding reactor Handle back to the request
// that's waiting on it and the route it was issued for.
type pendingConnect[R comparable, C Connection] struct {
	route  R
	req    *leaseRequest[R, C]
	handle Handle
}

// Pool is the globally coordinated pool core: route map, global leased set,
// global LRU-ordered available list, pending connect set, waiting-request
// queue, completed-request queue, and the capacity caps, plus the
// lease/release/capacity/eviction algorithm and reactor-callback handlers.
//
// A single mutex guards every field below except completed (its own small
// lock) and shutDown (atomic). Zero value is not usable — construct with
// New.
type Pool[R comparable, C Connection] struct {
	mu sync.Mutex

	routes map[R]*routePool[R, C]

	leased    map[uint64]*Entry[R, C]
	available *entryList[R, C]
	pending   map[uint64]*pendingConnect[R, C]

	waiting list.List // of *leaseRequest[R, C], FIFO

	completed *completedQueue[R, C]

	maxPerRoute        map[R]int
	defaultMaxPerRoute int
	maxTotal           int

	nextEntryID  uint64
	nextHandleID uint64

	initiator ConnectionInitiator
	resolver  AddressResolver[R]
	factory   ConnectionFactory[R, C]

	// Observers. Must not re-enter pool methods (see spec.md §5).
	onLease   func(e *Entry[R, C])
	onRelease func(e *Entry[R, C])
	onReuse   func(e *Entry[R, C])

	expiry func(now time.Time) bool

	shutDown atomic.Bool

	now func() time.Time

	log zerolog.Logger
}

// Option configures a Pool at construction time.
type Option[R comparable, C Connection] func(*Pool[R, C])

// WithLogger attaches structured logging of pool lifecycle events. Without
// this option the pool logs to zerolog.Nop(), which discards everything.
func WithLogger[R comparable, C Connection](log zerolog.Logger) Option[R, C] {
	return func(p *Pool[R, C]) { p.log = log }
}

// WithObservers registers the onReuse/onLease/onRelease callbacks from
// spec.md §4.3/§4.4. Any may be nil.
func WithObservers[R comparable, C Connection](onLease, onRelease, onReuse func(*Entry[R, C])) Option[R, C] {
	return func(p *Pool[R, C]) {
		p.onLease = onLease
		p.onRelease = onRelease
		p.onReuse = onReuse
	}
}

// WithEntryExpiry installs a default expiry predicate applied to every
// entry the pool creates, evaluated against the current time. Individual
// routes can't override it in this implementation — the spec's
// per-entry "expiry?" is intentionally a pool-wide policy here.
func WithEntryExpiry[R comparable, C Connection](expiry func(now time.Time) bool) Option[R, C] {
	return func(p *Pool[R, C]) { p.expiry = expiry }
}

// withClock overrides time.Now, for deterministic tests of deadline and
// LRU-eviction behavior.
func withClock[R comparable, C Connection](now func() time.Time) Option[R, C] {
	return func(p *Pool[R, C]) { p.now = now }
}

// New builds a Pool. A non-positive maxTotal or defaultMaxPerRoute is
// raised to 1.
func New[R comparable, C Connection](
	initiator ConnectionInitiator,
	resolver AddressResolver[R],
	factory ConnectionFactory[R, C],
	maxTotal, defaultMaxPerRoute int,
	opts ...Option[R, C],
) *Pool[R, C] {
	if maxTotal <= 0 {
		maxTotal = 1
	}
	if defaultMaxPerRoute <= 0 {
		defaultMaxPerRoute = 1
	}
	p := &Pool[R, C]{
		routes:             make(map[R]*routePool[R, C]),
		leased:             make(map[uint64]*Entry[R, C]),
		available:          newEntryList[R, C](),
		pending:            make(map[uint64]*pendingConnect[R, C]),
		completed:          newCompletedQueue[R, C](),
		maxPerRoute:        make(map[R]int),
		defaultMaxPerRoute: defaultMaxPerRoute,
		maxTotal:           maxTotal,
		initiator:          initiator,
		resolver:           resolver,
		factory:            factory,
		now:                time.Now,
		log:                zerolog.Nop(),
	}
	p.waiting.Init()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsShutDown reports whether Shutdown has been called. Monotone: once true,
// never observed false again.
func (p *Pool[R, C]) IsShutDown() bool { return p.shutDown.Load() }

// Lease requests a connection for route, optionally matching state. timeout
// is the deadline for the request to be satisfied (reuse or a completed
// connect) and is also the value handed to the reactor as the connect
// timeout; timeout <= 0 means unbounded. cb is an optional callback invoked
// with the same outcome delivered to the returned Future.
func (p *Pool[R, C]) Lease(route R, state any, timeout time.Duration, cb LeaseCallback[R, C]) (*Future[R, C], error) {
	if p.IsShutDown() {
		return nil, ShutDownError{}
	}

	req := &leaseRequest[R, C]{
		route:          route,
		state:          state,
		connectTimeout: timeout,
		future:         newFuture[R, C](),
		cb:             cb,
	}
	if timeout > 0 {
		req.deadline = p.now().Add(timeout)
	}

	p.mu.Lock()
	advanced := p.processPendingRequestLocked(req)
	if !advanced && req.term == reqPending {
		req.waitElem = p.waiting.PushBack(req)
	}
	p.mu.Unlock()

	p.fireCallbacks()
	return req.future, nil
}

// Release returns a leased entry to the pool. reusable indicates whether
// the connection is still good to hand out again; if not, it's closed.
// Idempotent: releasing an entry a second time (or one the pool doesn't
// recognize as leased) is a no-op. No-op entirely if e is nil or the pool
// is shut down.
func (p *Pool[R, C]) Release(e *Entry[R, C], reusable bool) {
	if e == nil || p.IsShutDown() {
		return
	}

	p.mu.Lock()
	if _, ok := p.leased[e.id]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.leased, e.id)

	rp := p.routes[e.route]
	if rp != nil {
		rp.free(e, reusable)
	}

	if reusable {
		e.touch(p.now())
		p.available.PushFront(e)
		if p.onRelease != nil {
			p.onRelease(e)
		}
	} else {
		_ = e.Close()
	}

	p.processNextPendingRequestLocked()
	p.purgeEmptyRouteLocked(e.route)
	p.mu.Unlock()

	p.fireCallbacks()
}

func (p *Pool[R, C]) fireCallbacks() {
	for _, req := range p.completed.drain() {
		p.deliver(req)
	}
}

func (p *Pool[R, C]) deliver(req *leaseRequest[R, C]) {
	switch req.term {
	case reqCompleted:
		req.future.complete(req.entry)
		if req.cb != nil {
			req.cb.Completed(req.entry)
		}
	case reqFailed:
		req.future.fail(req.err)
		if req.cb != nil {
			req.cb.Failed(req.err)
		}
	case reqCancelled:
		req.future.fail(CancelledError{})
		if req.cb != nil {
			req.cb.Cancelled()
		}
	}
}

func (p *Pool[R, C]) markCompletedLocked(req *leaseRequest[R, C], e *Entry[R, C]) {
	req.term = reqCompleted
	req.entry = e
	p.completed.push(req)
}

func (p *Pool[R, C]) markFailedLocked(req *leaseRequest[R, C], err error) {
	req.term = reqFailed
	req.err = err
	p.completed.push(req)
}

func (p *Pool[R, C]) markCancelledLocked(req *leaseRequest[R, C]) {
	req.term = reqCancelled
	p.completed.push(req)
}

func (p *Pool[R, C]) routePoolLocked(route R, create bool) *routePool[R, C] {
	rp, ok := p.routes[route]
	if !ok {
		if !create {
			return nil
		}
		rp = newRoutePool[R, C](route)
		p.routes[route] = rp
	}
	return rp
}

func (p *Pool[R, C]) maxPerRouteLocked(route R) int {
	if n, ok := p.maxPerRoute[route]; ok {
		return n
	}
	return p.defaultMaxPerRoute
}

// evictLocked closes e and removes it from both the global and route-local
// available lists. e must currently be idle (in available), not leased.
func (p *Pool[R, C]) evictLocked(rp *routePool[R, C], e *Entry[R, C]) {
	p.available.Remove(e)
	if rp != nil {
		rp.remove(e)
	}
	_ = e.Close()
	if p.log.GetLevel() <= zerolog.DebugLevel {
		p.log.Debug().Uint64("entry_id", e.id).Interface("route", e.route).Msg("evicted idle connection")
	}
}

// purgeEmptyRouteLocked drops route's routePool once nothing references it
// anymore, keeping the route map GC-safe.
func (p *Pool[R, C]) purgeEmptyRouteLocked(route R) {
	rp, ok := p.routes[route]
	if ok && rp.allocatedCount() == 0 {
		delete(p.routes, route)
	}
}

func (p *Pool[R, C]) newEntryLocked(route R, conn C, state any) *Entry[R, C] {
	id := atomic.AddUint64(&p.nextEntryID, 1)
	now := p.now()
	return &Entry[R, C]{
		id:        id,
		route:     route,
		conn:      conn,
		state:     state,
		createdAt: now,
		updatedAt: now,
		expiry:    p.expiry,
	}
}
