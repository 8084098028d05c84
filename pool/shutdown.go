package pool

import (
	"container/list"
	"context"
)

// Shutdown atomically latches the pool shut down. On the false->true
// transition (subsequent calls are no-ops) it first drains any futures
// already queued for notification, then — under the lock — cancels every
// pending connect and resolves its caller's future with CancelledError
// directly (once IsShutDown is true, the reactor's own Cancelled/Completed/
// Failed/TimedOut callbacks for that handle become no-ops, so shutdown
// itself is responsible for the one-time resolution), cancels every request
// still queued in the waiting list (never handed to a connect attempt, so
// no reactor callback will ever resolve it), closes every leased and
// available entry, shuts down every route pool, clears all structures, and
// finally hands the deadline on to the reactor's own Shutdown.
func (p *Pool[R, C]) Shutdown(ctx context.Context) error {
	if !p.shutDown.CompareAndSwap(false, true) {
		return nil
	}

	p.fireCallbacks()

	p.mu.Lock()
	for _, pc := range p.pending {
		pc.handle.Cancel()
		p.markCancelledLocked(pc.req)
	}
	for el := p.waiting.Front(); el != nil; el = el.Next() {
		p.markCancelledLocked(el.Value.(*leaseRequest[R, C]))
	}
	for _, e := range p.leased {
		_ = e.Close()
	}
	p.available.Each(func(e *Entry[R, C]) bool {
		_ = e.Close()
		return true
	})
	for _, rp := range p.routes {
		rp.shutdown()
	}

	p.routes = make(map[R]*routePool[R, C])
	p.leased = make(map[uint64]*Entry[R, C])
	p.available = newEntryList[R, C]()
	p.pending = make(map[uint64]*pendingConnect[R, C])
	p.waiting = list.List{}
	p.waiting.Init()
	p.mu.Unlock()

	p.fireCallbacks()

	p.log.Info().Msg("pool shut down")

	return p.initiator.Shutdown(ctx)
}
