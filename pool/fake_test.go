package pool

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// fakeConn is a Connection that records whether it was closed, for
// assertions in tests.
type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeHandle is a controllable Handle: the test decides when (and how) it
// resolves by calling one of the fakeReactor's resolve* methods.
type fakeHandle struct {
	mu      sync.Mutex
	timeout time.Duration
	session Session
	err     error
}

func (h *fakeHandle) SetConnectTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = d
}
func (h *fakeHandle) Cancel()          {}
func (h *fakeHandle) Session() Session { return h.session }
func (h *fakeHandle) Err() error       { return h.err }

// fakeReactor is a deterministic stand-in for ConnectionInitiator: it never
// resolves a connect on its own — the test drives outcomes explicitly so
// scenarios are reproducible without sleeps.
type fakeReactor struct {
	mu      sync.Mutex
	status  ReactorStatus
	conns   []*pendingFakeConnect
	shutdown bool
}

type pendingFakeConnect struct {
	handle     *fakeHandle
	cb         ConnectCallback
	cancelled  bool
}

func newFakeReactor() *fakeReactor {
	return &fakeReactor{status: ReactorActive}
}

func (r *fakeReactor) Connect(remote, local net.Addr, attachment any, cb ConnectCallback) Handle {
	h := &fakeHandle{}
	r.mu.Lock()
	r.conns = append(r.conns, &pendingFakeConnect{handle: h, cb: cb})
	r.mu.Unlock()
	return h
}

func (r *fakeReactor) Status() ReactorStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *fakeReactor) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdown = true
	r.status = ReactorShutDown
	r.mu.Unlock()
	return nil
}

// resolveLast completes the most recently issued, not-yet-resolved connect.
func (r *fakeReactor) resolveLast(session Session) {
	r.mu.Lock()
	conn := r.lastPendingLocked()
	r.mu.Unlock()
	if conn == nil {
		return
	}
	conn.handle.session = session
	conn.cb.Completed(conn.handle)
}

func (r *fakeReactor) failLast(err error) {
	r.mu.Lock()
	conn := r.lastPendingLocked()
	r.mu.Unlock()
	if conn == nil {
		return
	}
	conn.handle.err = err
	conn.cb.Failed(conn.handle, err)
}

func (r *fakeReactor) timeoutLast() {
	r.mu.Lock()
	conn := r.lastPendingLocked()
	r.mu.Unlock()
	if conn == nil {
		return
	}
	conn.cb.TimedOut(conn.handle)
}

func (r *fakeReactor) cancelLast() {
	r.mu.Lock()
	conn := r.lastPendingLocked()
	if conn != nil {
		conn.cancelled = true
	}
	r.mu.Unlock()
	if conn == nil {
		return
	}
	conn.cb.Cancelled(conn.handle)
}

// lastPendingLocked returns the most recent not-yet-resolved connect,
// marking it consumed. Caller holds r.mu.
func (r *fakeReactor) lastPendingLocked() *pendingFakeConnect {
	for i := len(r.conns) - 1; i >= 0; i-- {
		if !r.conns[i].cancelled {
			c := r.conns[i]
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return c
		}
	}
	return nil
}

func (r *fakeReactor) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// fakeResolver resolves any route to a fixed pair of addresses, or fails if
// failRoute matches.
type fakeResolver[R comparable] struct {
	failRoute R
	shouldFail bool
}

func (f *fakeResolver[R]) ResolveRemote(route R) (net.Addr, error) {
	if f.shouldFail && route == f.failRoute {
		return nil, errors.New("fake resolve failure")
	}
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}, nil
}

func (f *fakeResolver[R]) ResolveLocal(route R) (net.Addr, error) {
	return nil, nil
}

// fakeFactory wraps whatever session value was attached to the handle into
// a *fakeConn, unless the session is itself an error (used to simulate a
// factory failure).
type fakeFactory[R comparable] struct{}

func (fakeFactory[R]) Create(route R, session Session) (*fakeConn, error) {
	if err, ok := session.(error); ok {
		return nil, err
	}
	return &fakeConn{}, nil
}

func newTestPool(maxTotal, defaultMaxPerRoute int) (*Pool[string, *fakeConn], *fakeReactor) {
	reactor := newFakeReactor()
	resolver := &fakeResolver[string]{}
	factory := fakeFactory[string]{}
	p := New[string, *fakeConn](reactor, resolver, factory, maxTotal, defaultMaxPerRoute)
	return p, reactor
}
