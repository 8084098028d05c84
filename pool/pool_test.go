package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustResult[R comparable, C Connection](t *testing.T, f *Future[R, C]) *Entry[R, C] {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("future did not resolve")
	}
	e, err := f.Result()
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

// Scenario 1: immediate reuse, with onReuse firing before onLease.
func TestImmediateReuse(t *testing.T) {
	var order []string
	reactor := newFakeReactor()
	resolver := &fakeResolver[string]{}
	factory := fakeFactory[string]{}
	p := New[string, *fakeConn](reactor, resolver, factory, 2, 2,
		WithObservers[string, *fakeConn](
			func(e *Entry[string, *fakeConn]) { order = append(order, "lease") },
			nil,
			func(e *Entry[string, *fakeConn]) { order = append(order, "reuse") },
		),
	)

	f1, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, reactor.pendingCount())
	reactor.resolveLast(nil)
	e1 := mustResult(t, f1)

	p.Release(e1, true)

	order = nil
	f2, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.True(t, f2.IsDone(), "expected synchronous reuse")
	e2 := mustResult(t, f2)
	require.Same(t, e1, e2)
	require.Equal(t, []string{"reuse", "lease"}, order)
}

// Scenario 2: a per-route cap of 1 blocks a second lease until the first is
// released, then the queued request is advanced with the freed entry.
func TestRouteCapBlocksThenAdvances(t *testing.T) {
	p, reactor := newTestPool(10, 10)
	require.NoError(t, p.SetMaxPerRoute("r1", 1))

	f1, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	reactor.resolveLast(nil)
	e1 := mustResult(t, f1)

	f2, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.False(t, f2.IsDone(), "second lease should queue under the route cap")

	p.Release(e1, true)

	e2 := mustResult(t, f2)
	require.Same(t, e1, e2)
}

// Scenario 3: global cap eviction picks the global LRU idle entry.
func TestGlobalCapEvictsLRU(t *testing.T) {
	p, reactor := newTestPool(2, 2)

	f1, _ := p.Lease("r1", nil, 0, nil)
	reactor.resolveLast(nil)
	e1 := mustResult(t, f1)

	f2, _ := p.Lease("r2", nil, 0, nil)
	reactor.resolveLast(nil)
	e2 := mustResult(t, f2)

	// Release r1 first, then r2 — r1 is now the global LRU (released first).
	p.Release(e1, true)
	p.Release(e2, true)

	require.NoError(t, p.SetMaxPerRoute("r3", 1))
	f3, err := p.Lease("r3", nil, 0, nil)
	require.NoError(t, err)
	require.False(t, f3.IsDone())
	require.Equal(t, 1, reactor.pendingCount())

	require.True(t, e1.Closed(), "r1's idle entry should have been evicted (global LRU)")
	require.False(t, e2.Closed(), "r2's idle entry should survive — it was released more recently")

	reactor.resolveLast(nil)
	mustResult(t, f3)
}

// Scenario 4: a queued lease request fails with TimeoutError once its
// deadline elapses and validation runs.
func TestLeaseTimeout(t *testing.T) {
	p, reactor := newTestPool(1, 1)

	clock := time.Now()
	withClock[string, *fakeConn](func() time.Time { return clock })(p)

	f1, _ := p.Lease("r1", nil, 0, nil)
	reactor.resolveLast(nil)
	mustResult(t, f1)

	f2, err := p.Lease("r1", nil, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.False(t, f2.IsDone())

	clock = clock.Add(100 * time.Millisecond)
	p.ValidatePendingRequests()

	_, err = f2.Result()
	require.Error(t, err)
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
}

// Scenario 5: a connect failure resolves the future with the underlying
// error and returns global pending capacity.
func TestConnectFailureReleasesCapacity(t *testing.T) {
	p, reactor := newTestPool(1, 1)

	f1, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, p.TotalStats().Pending)

	reactor.failLast(errors.New("boom"))

	_, err = f1.Result()
	require.Error(t, err)
	require.Equal(t, 0, p.TotalStats().Pending)

	// Capacity freed — a second lease can now initiate its own connect.
	f2, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, reactor.pendingCount())
	reactor.resolveLast(nil)
	mustResult(t, f2)
}

// Scenario 6: shutdown during a pending connect cancels the handle and
// resolves the caller's future exactly once, and late reactor callbacks on
// the same handle become no-ops.
func TestShutdownDuringPendingConnect(t *testing.T) {
	p, reactor := newTestPool(1, 1)

	f1, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, reactor.pendingCount())

	require.NoError(t, p.Shutdown(context.Background()))

	_, err = f1.Result()
	require.Error(t, err)

	// Late callback on the (already-cancelled) handle must be a no-op: it
	// must not panic and must not re-resolve the future.
	reactor.resolveLast(nil)

	_, err2 := f1.Result()
	require.Equal(t, err, err2, "future must resolve exactly once")

	_, leaseErr := p.Lease("r2", nil, 0, nil)
	require.ErrorIs(t, leaseErr, ShutDownError{})
}

// Shutdown must resolve requests still sitting in the waiting queue (never
// handed to a connect attempt), not just the ones already pending a
// connect — otherwise a caller blocked in Future.Result() on a queued lease
// would hang forever past shutdown.
func TestShutdownResolvesWaitingRequests(t *testing.T) {
	p, reactor := newTestPool(10, 10)
	require.NoError(t, p.SetMaxPerRoute("r1", 1))

	f1, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	reactor.resolveLast(nil)
	mustResult(t, f1)

	f2, err := p.Lease("r1", nil, 0, nil)
	require.NoError(t, err)
	require.False(t, f2.IsDone(), "second lease should be queued under the route cap")

	require.NoError(t, p.Shutdown(context.Background()))

	_, err2 := f2.Result()
	require.Error(t, err2, "a request still in the waiting queue at shutdown must still resolve")
}

func TestReleaseIsIdempotent(t *testing.T) {
	p, reactor := newTestPool(5, 5)

	f1, _ := p.Lease("r1", nil, 0, nil)
	reactor.resolveLast(nil)
	e1 := mustResult(t, f1)

	p.Release(e1, true)
	require.Equal(t, 1, p.TotalStats().Available)

	p.Release(e1, true)
	require.Equal(t, 1, p.TotalStats().Available, "second release must be a no-op")
}

func TestCapacityInvariantAcrossLeaseAndRelease(t *testing.T) {
	p, reactor := newTestPool(2, 2)

	f1, _ := p.Lease("r1", nil, 0, nil)
	f2, _ := p.Lease("r2", nil, 0, nil)
	require.LessOrEqual(t, p.TotalStats().Pending+p.TotalStats().Leased, 2)

	reactor.resolveLast(nil)
	reactor.resolveLast(nil)
	mustResult(t, f1)
	mustResult(t, f2)
	require.LessOrEqual(t, p.TotalStats().Pending+p.TotalStats().Leased, 2)
}

func TestFailedResolveDoesNotPoisonPool(t *testing.T) {
	reactor := newFakeReactor()
	resolver := &fakeResolver[string]{failRoute: "bad", shouldFail: true}
	factory := fakeFactory[string]{}
	p := New[string, *fakeConn](reactor, resolver, factory, 2, 2)

	_, err := p.Lease("bad", nil, 0, nil)
	require.NoError(t, err)

	f, err := p.Lease("good", nil, 0, nil)
	require.NoError(t, err)
	reactor.resolveLast(nil)
	mustResult(t, f)
}
