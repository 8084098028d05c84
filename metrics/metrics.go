// Package metrics is a small Prometheus-text registry, wired to the pool
// package's lifecycle observers so pool_leased/pool_available/pool_pending
// gauges and pool_leases_total/pool_releases_total/pool_reuses_total
// counters stay current
// without the pool core importing anything about Prometheus itself.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing value.
type Counter struct{ value atomic.Int64 }

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down, stored as micros for
// float-like precision without a lock.
type Gauge struct{ value atomic.Int64 }

func (g *Gauge) Set(v float64)  { g.value.Store(int64(v * 1e6)) }
func (g *Gauge) Inc()           { g.value.Add(1e6) }
func (g *Gauge) Dec()           { g.value.Add(-1e6) }
func (g *Gauge) Value() float64 { return float64(g.value.Load()) / 1e6 }

func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return strings.Join(parts, ",")
}

type metricKind uint8

const (
	kindCounter metricKind = iota
	kindGauge
)

type seriesKey struct {
	kind  metricKind
	name  string
	label string
}

// Registry is the process-wide Prometheus-compatible metrics registry. It
// keeps every counter/gauge series in a single sync.Map rather than a
// name->label->value tree guarded by its own RWMutex: series are created
// once and read/written constantly afterward, which is exactly the
// read-mostly, stable-key-set workload sync.Map is built for, and it
// removes the need for any explicit locking in the hot path.
type Registry struct {
	store sync.Map // seriesKey -> *Counter | *Gauge
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) CounterInc(name string, labels map[string]string) {
	r.getCounter(name, labels).Inc()
}

func (r *Registry) GaugeSet(name string, labels map[string]string, v float64) {
	r.getGauge(name, labels).Set(v)
}

func (r *Registry) GaugeAdd(name string, labels map[string]string, delta float64) {
	g := r.getGauge(name, labels)
	if delta > 0 {
		for i := 0; i < int(delta); i++ {
			g.Inc()
		}
		return
	}
	for i := 0; i < int(-delta); i++ {
		g.Dec()
	}
}

func (r *Registry) getCounter(name string, labels map[string]string) *Counter {
	key := seriesKey{kindCounter, name, labelKey(labels)}
	v, _ := r.store.LoadOrStore(key, &Counter{})
	return v.(*Counter)
}

func (r *Registry) getGauge(name string, labels map[string]string) *Gauge {
	key := seriesKey{kindGauge, name, labelKey(labels)}
	v, _ := r.store.LoadOrStore(key, &Gauge{})
	return v.(*Gauge)
}

// Handler renders every registered metric in Prometheus text exposition
// format.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# connpool metrics - %s\n\n", time.Now().UTC().Format(time.RFC3339)))

		// sync.Map has no ordered enumeration, so group by name first and
		// sort before rendering — Prometheus scrapers don't care about
		// order, but stable output makes the text diffable/testable.
		counters := make(map[string]map[string]int64)
		gauges := make(map[string]map[string]float64)
		r.store.Range(func(k, v any) bool {
			key := k.(seriesKey)
			switch c := v.(type) {
			case *Counter:
				byLabel, ok := counters[key.name]
				if !ok {
					byLabel = make(map[string]int64)
					counters[key.name] = byLabel
				}
				byLabel[key.label] = c.Value()
			case *Gauge:
				byLabel, ok := gauges[key.name]
				if !ok {
					byLabel = make(map[string]float64)
					gauges[key.name] = byLabel
				}
				byLabel[key.label] = c.Value()
			}
			return true
		})

		for _, name := range sortedKeys(counters) {
			sb.WriteString(fmt.Sprintf("# TYPE %s counter\n", name))
			for _, lk := range sortedKeys(counters[name]) {
				v := counters[name][lk]
				if lk == "" {
					sb.WriteString(fmt.Sprintf("%s %d\n", name, v))
				} else {
					sb.WriteString(fmt.Sprintf("%s{%s} %d\n", name, lk, v))
				}
			}
			sb.WriteString("\n")
		}

		for _, name := range sortedKeys(gauges) {
			sb.WriteString(fmt.Sprintf("# TYPE %s gauge\n", name))
			for _, lk := range sortedKeys(gauges[name]) {
				v := gauges[name][lk]
				if lk == "" {
					sb.WriteString(fmt.Sprintf("%s %f\n", name, v))
				} else {
					sb.WriteString(fmt.Sprintf("%s{%s} %f\n", name, lk, v))
				}
			}
			sb.WriteString("\n")
		}

		_, _ = w.Write([]byte(sb.String()))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
