// Package reactor is a real, non-blocking ConnectionInitiator for the pool
// package: each Connect call spins up its own goroutine that dials with
// net.Dialer.DialContext and reports the outcome back through the
// pool.ConnectCallback contract, never blocking the caller's goroutine.
package reactor

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/alfred-ai/connpool/pool"
)

// Dialer is the subset of net.Dialer.DialContext the reactor needs,
// narrowed to an interface so tests can substitute a fake without opening
// real sockets.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TCPReactor dials TCP connections asynchronously on behalf of pool.Pool.
type TCPReactor struct {
	dialer  Dialer
	network string
	log     zerolog.Logger

	status atomic.Int32

	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
}

// New builds a TCPReactor. network is typically "tcp"; pass a *net.Dialer
// for dialer in production code.
func New(dialer Dialer, network string, log zerolog.Logger) *TCPReactor {
	ctx, cancel := context.WithCancel(context.Background())
	r := &TCPReactor{
		dialer:  dialer,
		network: network,
		log:     log.With().Str("component", "reactor").Logger(),
		cancel:  cancel,
		ctx:     ctx,
	}
	r.status.Store(int32(pool.ReactorActive))
	return r
}

// handle implements pool.Handle for one in-flight dial. armed gates the
// dial goroutine until the caller has had a chance to call
// SetConnectTimeout: Connect returns before dialing starts, and the dial
// goroutine waits for either an explicit SetConnectTimeout call or a 1ms
// fallback window, whichever comes first. A timeout set within that window
// applies to the dial; one set after the dial has started does not.
type handle struct {
	mu        sync.Mutex
	cancel    context.CancelFunc
	timeout   time.Duration
	session   pool.Session
	err       error
	cancelled atomic.Bool

	armed     chan struct{}
	armedOnce sync.Once
}

func (h *handle) SetConnectTimeout(d time.Duration) {
	h.mu.Lock()
	h.timeout = d
	h.mu.Unlock()
	h.arm()
}

func (h *handle) arm() {
	h.armedOnce.Do(func() { close(h.armed) })
}

func (h *handle) Cancel() {
	if h.cancelled.CompareAndSwap(false, true) {
		h.cancel()
	}
}

func (h *handle) Session() pool.Session { return h.session }
func (h *handle) Err() error            { return h.err }

// Connect dials remote asynchronously, optionally binding to local, and
// reports the outcome via cb from a dedicated goroutine. attachment is
// unused — the pool's internal callback closes over everything it needs,
// so the reactor never has to round-trip an opaque value back to a route.
func (r *TCPReactor) Connect(remote, local net.Addr, attachment any, cb pool.ConnectCallback) pool.Handle {
	dialCtx, cancel := context.WithCancel(r.ctx)
	h := &handle{cancel: cancel, armed: make(chan struct{})}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-h.armed:
		case <-time.After(time.Millisecond):
		}
		r.dial(dialCtx, remote, local, h, cb)
	}()

	return h
}

func (r *TCPReactor) dial(ctx context.Context, remote, local net.Addr, h *handle, cb pool.ConnectCallback) {
	h.arm()
	h.mu.Lock()
	timeout := h.timeout
	h.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d := r.dialer
	if ld, ok := d.(*net.Dialer); ok && local != nil {
		bound := *ld
		bound.LocalAddr = local
		d = &bound
	}

	conn, err := d.DialContext(ctx, r.network, remote.String())

	if h.cancelled.Load() {
		if conn != nil {
			_ = conn.Close()
		}
		cb.Cancelled(h)
		return
	}

	if err != nil {
		h.err = err
		if ctx.Err() == context.DeadlineExceeded {
			cb.TimedOut(h)
			return
		}
		cb.Failed(h, err)
		return
	}

	h.session = conn
	cb.Completed(h)
}

// Status reports the reactor's lifecycle state.
func (r *TCPReactor) Status() pool.ReactorStatus {
	return pool.ReactorStatus(r.status.Load())
}

// Shutdown marks the reactor as shutting down, cancels every in-flight
// dial, and waits (bounded by ctx) for their goroutines to finish.
func (r *TCPReactor) Shutdown(ctx context.Context) error {
	r.status.Store(int32(pool.ReactorShuttingDown))
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.status.Store(int32(pool.ReactorShutDown))
		return nil
	case <-ctx.Done():
		r.status.Store(int32(pool.ReactorShutDown))
		return ctx.Err()
	}
}
