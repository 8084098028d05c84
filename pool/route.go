package pool

// routePool holds one route's available, leased, and pending bookkeeping.
// It does no global accounting and takes no locks of its own — callers
// (the Pool core) serialize all access via the pool-wide mutex.
type routePool[R comparable, C Connection] struct {
	route     R
	leased    map[uint64]*Entry[R, C]
	available *entryList[R, C]
	pending   map[uint64]*leaseRequest[R, C] // connect handle id -> waiting request
}

func newRoutePool[R comparable, C Connection](route R) *routePool[R, C] {
	return &routePool[R, C]{
		route:     route,
		leased:    make(map[uint64]*Entry[R, C]),
		available: newEntryList[R, C](),
		pending:   make(map[uint64]*leaseRequest[R, C]),
	}
}

// allocatedCount is leased + available + pending for this route.
func (rp *routePool[R, C]) allocatedCount() int {
	return len(rp.leased) + rp.available.Len() + len(rp.pending)
}

// getFree returns an idle entry matching state, preferring the
// most-recently-released match. Does not remove it from available — the
// caller (Pool core) removes it from both the route-local and global
// available structures once it decides to hand it out.
func (rp *routePool[R, C]) getFree(state any) *Entry[R, C] {
	var found *Entry[R, C]
	rp.available.Each(func(e *Entry[R, C]) bool {
		if statesEqual(e.state, state) {
			found = e
			return false
		}
		return true
	})
	return found
}

// getLastUsed returns the least-recently-released idle entry, the eviction
// victim, or nil if none are idle.
func (rp *routePool[R, C]) getLastUsed() *Entry[R, C] {
	return rp.available.Back()
}

// free moves e from leased to available if reusable; otherwise the caller
// is responsible for closing it. Either way e leaves the leased set.
func (rp *routePool[R, C]) free(e *Entry[R, C], reusable bool) {
	delete(rp.leased, e.id)
	if reusable {
		rp.available.PushFront(e)
	}
}

// addPending records an outstanding connect bound to req.
func (rp *routePool[R, C]) addPending(handleID uint64, req *leaseRequest[R, C]) {
	rp.pending[handleID] = req
}

// removePending drops the pending record for handleID, if present.
func (rp *routePool[R, C]) removePending(handleID uint64) {
	delete(rp.pending, handleID)
}

// remove drops e from whichever of leased/available it is currently in.
// Used by the core whenever an idle entry is dropped from the route-local
// available list — on eviction (evictLocked) and when a closed entry is
// swept out during enumeration (EnumAvailable) — so both paths share one
// definition of "remove this entry from the route."
func (rp *routePool[R, C]) remove(e *Entry[R, C]) {
	delete(rp.leased, e.id)
	rp.available.Remove(e)
}

// shutdown drops all bookkeeping, including the pending records; it does not
// cancel any connect itself. Closing leased/available entries is the core's job since it
// owns the global available/leased sets these entries also live in.
func (rp *routePool[R, C]) shutdown() {
	// The handles themselves are cancelled by Pool.Shutdown, which holds
	// the handle references; routePool only tracked the waiting requests.
	rp.leased = make(map[uint64]*Entry[R, C])
	rp.available = newEntryList[R, C]()
	rp.pending = make(map[uint64]*leaseRequest[R, C])
}
