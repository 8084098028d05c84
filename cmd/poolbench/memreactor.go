package main

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/alfred-ai/connpool/pool"
)

// memReactor is a ConnectionInitiator that "connects" instantly from a
// goroutine, used to benchmark the pool's own bookkeeping overhead
// independent of real network latency. Use --dial to exercise a real
// reactor/resolver/tcpconn stack against an actual TCP target instead.
type memReactor struct {
	status  atomic.Int32
	latency time.Duration
}

func newMemReactor(latency time.Duration) *memReactor {
	r := &memReactor{latency: latency}
	r.status.Store(int32(pool.ReactorActive))
	return r
}

type memHandle struct{ session pool.Session }

func (memHandle) SetConnectTimeout(time.Duration) {}
func (memHandle) Cancel()                         {}
func (h memHandle) Session() pool.Session         { return h.session }
func (memHandle) Err() error                      { return nil }

func (r *memReactor) Connect(remote, local net.Addr, attachment any, cb pool.ConnectCallback) pool.Handle {
	h := memHandle{session: "mem"}
	go func() {
		if r.latency > 0 {
			time.Sleep(r.latency)
		}
		cb.Completed(h)
	}()
	return h
}

func (r *memReactor) Status() pool.ReactorStatus { return pool.ReactorStatus(r.status.Load()) }

func (r *memReactor) Shutdown(ctx context.Context) error {
	r.status.Store(int32(pool.ReactorShutDown))
	return nil
}

type memResolver struct{}

func (memResolver) ResolveRemote(route string) (net.Addr, error) {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}, nil
}
func (memResolver) ResolveLocal(route string) (net.Addr, error) { return nil, nil }

type memConn struct{ closed atomic.Bool }

func (c *memConn) Close() error { c.closed.Store(true); return nil }

type memFactory struct{}

func (memFactory) Create(route string, session pool.Session) (*memConn, error) {
	return &memConn{}, nil
}
