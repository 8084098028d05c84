package pool

import "github.com/rs/zerolog"

// processPendingRequestLocked implements spec.md §4.3. Returns true iff the
// request was either satisfied (reuse or new connect) or resulted in a new
// pending connect. Must be called with p.mu held.
func (p *Pool[R, C]) processPendingRequestLocked(req *leaseRequest[R, C]) bool {
	now := p.now()

	// 1. Deadline check. A deadline-expired request is marked terminal-
	// failed but reported as not-advanced, so a queue scan can immediately
	// try the next request — it didn't consume a dispatch slot.
	if !req.deadline.IsZero() && now.After(req.deadline) {
		p.markFailedLocked(req, &TimeoutError{Route: req.route})
		return false
	}

	rp := p.routePoolLocked(req.route, true)

	// 2. Reuse path.
	for {
		e := rp.getFree(req.state)
		if e == nil {
			break
		}
		if e.Expired(now) {
			p.evictLocked(rp, e)
			continue
		}
		p.available.Remove(e)
		rp.available.Remove(e)
		p.leased[e.id] = e
		rp.leased[e.id] = e
		p.markCompletedLocked(req, e)
		if p.onReuse != nil {
			p.onReuse(e)
		}
		if p.onLease != nil {
			p.onLease(e)
		}
		return true
	}

	// 3. New-connection path.
	perRouteCap := p.maxPerRouteLocked(req.route)

	excess := rp.allocatedCount() + 1 - perRouteCap
	for excess > 0 {
		victim := rp.getLastUsed()
		if victim == nil {
			break
		}
		p.evictLocked(rp, victim)
		excess--
	}
	if rp.allocatedCount() >= perRouteCap {
		return false
	}

	totalUsed := len(p.pending) + len(p.leased)
	freeCapacity := p.maxTotal - totalUsed
	if freeCapacity < 0 {
		freeCapacity = 0
	}
	if freeCapacity == 0 {
		return false
	}
	if p.available.Len() > freeCapacity-1 && p.available.Len() > 0 {
		if victim := p.available.Back(); victim != nil {
			p.evictLocked(p.routes[victim.route], victim)
		}
	}

	remote, err := p.resolver.ResolveRemote(req.route)
	if err != nil {
		p.markFailedLocked(req, &ResolveError{Route: req.route, Err: err})
		return false
	}
	local, err := p.resolver.ResolveLocal(req.route)
	if err != nil {
		p.markFailedLocked(req, &ResolveError{Route: req.route, Err: err})
		return false
	}

	handleID := p.nextHandleIDLocked()
	cb := &internalCallback[R, C]{pool: p, handleID: handleID, route: req.route, req: req}
	h := p.initiator.Connect(remote, local, req.route, cb)
	if req.connectTimeout > 0 {
		h.SetConnectTimeout(req.connectTimeout)
	}
	p.pending[handleID] = &pendingConnect[R, C]{route: req.route, req: req, handle: h}
	rp.addPending(handleID, req)

	if p.log.GetLevel() <= zerolog.DebugLevel {
		p.log.Debug().Uint64("handle_id", handleID).Interface("route", req.route).Msg("connect initiated")
	}
	return true
}

func (p *Pool[R, C]) nextHandleIDLocked() uint64 {
	p.nextHandleID++
	return p.nextHandleID
}

// processNextPendingRequestLocked services the waiting queue in FIFO order,
// stopping at the first request that was advanced (satisfied or newly
// pending) — one unit of freed capacity yields at most one new assignment.
func (p *Pool[R, C]) processNextPendingRequestLocked() {
	for el := p.waiting.Front(); el != nil; {
		next := el.Next()
		req := el.Value.(*leaseRequest[R, C])
		advanced := p.processPendingRequestLocked(req)
		if advanced || req.term != reqPending {
			p.waiting.Remove(el)
		}
		if advanced {
			return
		}
		el = next
	}
}

// processPendingRequestsLocked is the bulk variant: identical scan, but
// does not stop at the first advance. Used when a bulk condition changes
// (e.g. after enumerating/evicting available entries).
func (p *Pool[R, C]) processPendingRequestsLocked() {
	for el := p.waiting.Front(); el != nil; {
		next := el.Next()
		req := el.Value.(*leaseRequest[R, C])
		advanced := p.processPendingRequestLocked(req)
		if advanced || req.term != reqPending {
			p.waiting.Remove(el)
		}
		el = next
	}
}

// validatePendingRequestsLocked marks as failed (TimeoutError) any waiting
// request whose deadline has passed.
func (p *Pool[R, C]) validatePendingRequestsLocked() {
	now := p.now()
	for el := p.waiting.Front(); el != nil; {
		next := el.Next()
		req := el.Value.(*leaseRequest[R, C])
		if !req.deadline.IsZero() && now.After(req.deadline) {
			p.markFailedLocked(req, &TimeoutError{Route: req.route})
			p.waiting.Remove(el)
		}
		el = next
	}
}

// ValidatePendingRequests scans the waiting queue and fails any request
// whose deadline has elapsed. Safe to call periodically from a maintenance
// goroutine external to the pool.
func (p *Pool[R, C]) ValidatePendingRequests() {
	p.mu.Lock()
	p.validatePendingRequestsLocked()
	p.mu.Unlock()
	p.fireCallbacks()
}
