package pool

import "time"

// TotalStats is a point-in-time snapshot of pool-wide counters.
type TotalStats struct {
	Leased    int
	Pending   int
	Available int
	MaxTotal  int
}

// RouteStats is a point-in-time snapshot of one route's counters.
type RouteStats struct {
	Leased      int
	Pending     int
	Available   int
	MaxPerRoute int
}

// TotalStats returns the current global counters.
func (p *Pool[R, C]) TotalStats() TotalStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TotalStats{
		Leased:    len(p.leased),
		Pending:   len(p.pending),
		Available: p.available.Len(),
		MaxTotal:  p.maxTotal,
	}
}

// RouteStats returns route's current counters plus its effective cap, even
// if the route has never been leased (in which case every count is zero).
func (p *Pool[R, C]) RouteStats(route R) RouteStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	rp, ok := p.routes[route]
	if !ok {
		return RouteStats{MaxPerRoute: p.maxPerRouteLocked(route)}
	}
	return RouteStats{
		Leased:      len(rp.leased),
		Pending:     len(rp.pending),
		Available:   rp.available.Len(),
		MaxPerRoute: p.maxPerRouteLocked(route),
	}
}

// Routes returns a snapshot of every route the pool currently tracks. A
// route pool is only purged on some paths, so a returned route may have
// nothing allocated.
func (p *Pool[R, C]) Routes() []R {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]R, 0, len(p.routes))
	for r := range p.routes {
		out = append(out, r)
	}
	return out
}

// EnumAvailable invokes fn on every idle entry under the lock. If fn closes
// an entry, it's removed from the available structures once the scan
// finishes, the waiting queue is re-examined (freed capacity may now let a
// queued request proceed), and any route pool left with nothing allocated
// is purged.
func (p *Pool[R, C]) EnumAvailable(fn func(*Entry[R, C])) {
	p.mu.Lock()

	var snapshot []*Entry[R, C]
	p.available.Each(func(e *Entry[R, C]) bool {
		snapshot = append(snapshot, e)
		return true
	})
	for _, e := range snapshot {
		fn(e)
	}

	var closedRoutes []R
	for _, e := range snapshot {
		if !e.Closed() {
			continue
		}
		p.available.Remove(e)
		if rp := p.routes[e.route]; rp != nil {
			rp.remove(e)
			closedRoutes = append(closedRoutes, e.route)
		}
	}

	if len(closedRoutes) > 0 {
		p.processPendingRequestsLocked()
	}
	for _, r := range closedRoutes {
		p.purgeEmptyRouteLocked(r)
	}

	p.mu.Unlock()
	p.fireCallbacks()
}

// EnumLeased invokes fn on every currently leased entry, under the lock.
func (p *Pool[R, C]) EnumLeased(fn func(*Entry[R, C])) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.leased {
		fn(e)
	}
}

// CloseIdle closes every available entry that hasn't been touched within
// idleTime of now. A negative idleTime is treated as zero.
func (p *Pool[R, C]) CloseIdle(idleTime time.Duration) {
	if idleTime < 0 {
		idleTime = 0
	}
	deadline := p.now().Add(-idleTime)

	p.mu.Lock()
	var victims []*Entry[R, C]
	p.available.Each(func(e *Entry[R, C]) bool {
		if !e.UpdatedAt().After(deadline) {
			victims = append(victims, e)
		}
		return true
	})
	for _, e := range victims {
		p.evictLocked(p.routes[e.route], e)
	}
	for _, e := range victims {
		p.purgeEmptyRouteLocked(e.route)
	}
	p.mu.Unlock()
}

// CloseExpired closes every available entry whose expiry predicate fires
// right now.
func (p *Pool[R, C]) CloseExpired() {
	now := p.now()

	p.mu.Lock()
	var victims []*Entry[R, C]
	p.available.Each(func(e *Entry[R, C]) bool {
		if e.Expired(now) {
			victims = append(victims, e)
		}
		return true
	})
	for _, e := range victims {
		p.evictLocked(p.routes[e.route], e)
	}
	for _, e := range victims {
		p.purgeEmptyRouteLocked(e.route)
	}
	p.mu.Unlock()
}
