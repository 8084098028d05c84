package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/alfred-ai/connpool/pool"
)

// Observers builds the onLease/onRelease/onReuse callbacks pool.Option
// WithObservers expects, wired to the given Registry. route is stringified
// via fmt's default verb as the "route" label.
func Observers[R comparable, C pool.Connection](reg *Registry) (onLease, onRelease, onReuse func(*pool.Entry[R, C])) {
	onLease = func(e *pool.Entry[R, C]) {
		reg.CounterInc("pool_leases_total", map[string]string{"route": routeLabel(e.Route())})
	}
	onRelease = func(e *pool.Entry[R, C]) {
		reg.CounterInc("pool_releases_total", map[string]string{"route": routeLabel(e.Route())})
	}
	onReuse = func(e *pool.Entry[R, C]) {
		reg.CounterInc("pool_reuses_total", map[string]string{"route": routeLabel(e.Route())})
	}
	return
}

func routeLabel(route any) string {
	if s, ok := route.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(route)
}

// WatchTotals polls p.TotalStats() every interval and mirrors it into
// pool_leased/pool_available/pool_pending/pool_max_total gauges, until ctx
// is cancelled. Call this from its own goroutine.
func WatchTotals[R comparable, C pool.Connection](ctx context.Context, reg *Registry, p *pool.Pool[R, C], interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.TotalStats()
			reg.GaugeSet("pool_leased", nil, float64(s.Leased))
			reg.GaugeSet("pool_available", nil, float64(s.Available))
			reg.GaugeSet("pool_pending", nil, float64(s.Pending))
			reg.GaugeSet("pool_max_total", nil, float64(s.MaxTotal))
		}
	}
}
