package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alfred-ai/connpool/metrics"
	"github.com/alfred-ai/connpool/pool"
)

type stubConn struct{}

func (stubConn) Close() error { return nil }

type stubInitiator struct{}

func (stubInitiator) Connect(remote, local net.Addr, attachment any, cb pool.ConnectCallback) pool.Handle {
	return stubHandle{}
}
func (stubInitiator) Status() pool.ReactorStatus      { return pool.ReactorActive }
func (stubInitiator) Shutdown(ctx context.Context) error { return nil }

type stubHandle struct{}

func (stubHandle) SetConnectTimeout(d time.Duration) {}
func (stubHandle) Cancel()                    {}
func (stubHandle) Session() pool.Session      { return nil }
func (stubHandle) Err() error                 { return nil }

type stubResolver struct{}

func (stubResolver) ResolveRemote(route string) (net.Addr, error) { return &net.TCPAddr{}, nil }
func (stubResolver) ResolveLocal(route string) (net.Addr, error)  { return nil, nil }

type stubFactory struct{}

func (stubFactory) Create(route string, session pool.Session) (stubConn, error) {
	return stubConn{}, nil
}

func newTestPool(t *testing.T) *pool.Pool[string, stubConn] {
	t.Helper()
	return pool.New[string, stubConn](stubInitiator{}, stubResolver{}, stubFactory{}, 10, 10)
}

func TestHealthzAndReady(t *testing.T) {
	p := newTestPool(t)
	r := NewRouter[string, stubConn](p, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("/healthz = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ready", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("/ready = %d, want 200", rec.Code)
	}

	_ = p.Shutdown(context.Background())
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ready", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 503 {
		t.Fatalf("/ready after shutdown = %d, want 503", rec.Code)
	}
}

func TestStatsAndRoutes(t *testing.T) {
	p := newTestPool(t)
	r := NewRouter[string, stubConn](p, metrics.New(), zerolog.Nop())

	_, _ = p.Lease("r1", nil, 0, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/stats", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("/stats = %d, want 200", rec.Code)
	}
	var stats pool.TotalStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/routes", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("/routes = %d, want 200", rec.Code)
	}
	var routes []routeSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &routes); err != nil {
		t.Fatalf("decode routes: %v", err)
	}
	if len(routes) != 1 || routes[0].Route != "r1" || routes[0].Pending != 1 {
		t.Fatalf("/routes = %+v, want one pending entry for r1", routes)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("/metrics = %d, want 200", rec.Code)
	}
}
