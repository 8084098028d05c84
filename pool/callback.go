package pool

// internalCallback adapts the reactor's four connect outcomes back into
// the pool core. One is created per Connect call and closes directly over
// the route, handle id, and waiting request — per the design note in
// spec.md §9, this is the typed alternative to casting an untyped
// "attachment" back to a route.
type internalCallback[R comparable, C Connection] struct {
	pool     *Pool[R, C]
	handleID uint64
	route    R
	req      *leaseRequest[R, C]
}

func (cb *internalCallback[R, C]) detachLocked() *routePool[R, C] {
	p := cb.pool
	delete(p.pending, cb.handleID)
	rp := p.routes[cb.route]
	if rp != nil {
		rp.removePending(cb.handleID)
	}
	return rp
}

// Completed fires when the reactor's connect succeeds. The ready session is
// handed to the ConnectionFactory; a factory I/O error fails the request
// without poisoning the pool.
func (cb *internalCallback[R, C]) Completed(h Handle) {
	p := cb.pool
	if p.IsShutDown() {
		return
	}

	p.mu.Lock()
	cb.detachLocked()

	conn, err := p.factory.Create(cb.route, h.Session())
	if err != nil {
		p.markFailedLocked(cb.req, &ConnectError{Route: cb.route, Err: err})
		p.mu.Unlock()
		p.fireCallbacks()
		return
	}

	rp := p.routePoolLocked(cb.route, true)
	e := p.newEntryLocked(cb.route, conn, cb.req.state)
	p.leased[e.id] = e
	rp.leased[e.id] = e
	p.markCompletedLocked(cb.req, e)
	if p.onLease != nil {
		p.onLease(e)
	}
	p.mu.Unlock()
	p.fireCallbacks()
}

// Cancelled fires when the reactor abandons a connect attempt (e.g. during
// shutdown). Re-examines the waiting queue unless the reactor itself is
// already shutting down or down.
func (cb *internalCallback[R, C]) Cancelled(h Handle) {
	p := cb.pool
	if p.IsShutDown() {
		return
	}

	p.mu.Lock()
	cb.detachLocked()
	p.markCancelledLocked(cb.req)
	if p.initiator.Status() <= ReactorActive {
		p.processNextPendingRequestLocked()
	}
	p.purgeEmptyRouteLocked(cb.route)
	p.mu.Unlock()
	p.fireCallbacks()
}

// Failed fires when the reactor's connect attempt errors out.
func (cb *internalCallback[R, C]) Failed(h Handle, err error) {
	p := cb.pool
	if p.IsShutDown() {
		return
	}

	p.mu.Lock()
	cb.detachLocked()
	p.markFailedLocked(cb.req, &ConnectError{Route: cb.route, Err: err})
	p.processNextPendingRequestLocked()
	p.purgeEmptyRouteLocked(cb.route)
	p.mu.Unlock()
	p.fireCallbacks()
}

// TimedOut fires when the reactor's own connect-timeout elapses.
func (cb *internalCallback[R, C]) TimedOut(h Handle) {
	p := cb.pool
	if p.IsShutDown() {
		return
	}

	p.mu.Lock()
	cb.detachLocked()
	p.markFailedLocked(cb.req, &TimeoutError{Route: cb.route})
	p.processNextPendingRequestLocked()
	p.purgeEmptyRouteLocked(cb.route)
	p.mu.Unlock()
	p.fireCallbacks()
}
