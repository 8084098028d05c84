package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/alfred-ai/connpool/pool"
	"github.com/alfred-ai/connpool/reactor"
	"github.com/alfred-ai/connpool/resolver"
	"github.com/alfred-ai/connpool/tcpconn"
)

func splitHostPort(hostport string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, fmt.Errorf("--dial target %q: %w", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("--dial target %q: invalid port: %w", hostport, err)
	}
	return host, port, nil
}

type runOptions struct {
	duration    time.Duration
	workers     int
	routes      int
	ratePerSec  float64
	maxTotal    int
	maxPerRoute int
	holdTime    time.Duration
	dialTarget  string
	connectMs   int
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark against a Pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(opts)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.duration, "duration", 10*time.Second, "how long to run the benchmark")
	f.IntVar(&opts.workers, "workers", 50, "number of concurrent virtual users")
	f.IntVar(&opts.routes, "routes", 4, "number of distinct routes to spread load across")
	f.Float64Var(&opts.ratePerSec, "rate", 200, "target leases issued per second, 0 for unbounded")
	f.IntVar(&opts.maxTotal, "max-total", 100, "pool's global capacity")
	f.IntVar(&opts.maxPerRoute, "max-per-route", 25, "pool's per-route capacity")
	f.DurationVar(&opts.holdTime, "hold", 5*time.Millisecond, "how long each virtual user holds a leased connection")
	f.StringVar(&opts.dialTarget, "dial", "", "host:port to dial for real connections; empty uses an in-process reactor")
	f.IntVar(&opts.connectMs, "connect-latency-ms", 1, "simulated connect latency in milliseconds (ignored with --dial)")

	return cmd
}

type results struct {
	leases    atomic.Int64
	failures  atomic.Int64
	latencies []time.Duration
	mu        sync.Mutex
}

func (r *results) record(d time.Duration, err error) {
	if err != nil {
		r.failures.Add(1)
		return
	}
	r.leases.Add(1)
	r.mu.Lock()
	r.latencies = append(r.latencies, d)
	r.mu.Unlock()
}

func runBenchmark(opts *runOptions) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if opts.dialTarget != "" {
		return runDial(opts, log)
	}
	return runMemory(opts, log)
}

func runMemory(opts *runOptions, log zerolog.Logger) error {
	r := newMemReactor(time.Duration(opts.connectMs) * time.Millisecond)
	p := pool.New[string, *memConn](r, memResolver{}, memFactory{}, opts.maxTotal, opts.maxPerRoute)
	defer p.Shutdown(context.Background())

	routes := make([]string, opts.routes)
	for i := range routes {
		routes[i] = fmt.Sprintf("route-%d", i)
	}

	res := drive(opts, func() string { return routes[rand.Intn(len(routes))] }, func(route string) (*pool.Entry[string, *memConn], error) {
		f, err := p.Lease(route, nil, 2*time.Second, nil)
		if err != nil {
			return nil, err
		}
		return f.Result()
	}, func(e *pool.Entry[string, *memConn]) {
		p.Release(e, true)
	})

	report(opts, res, p.TotalStats())
	return nil
}

func runDial(opts *runOptions, log zerolog.Logger) error {
	host, port, err := splitHostPort(opts.dialTarget)
	if err != nil {
		return err
	}

	r := reactor.New(&net.Dialer{}, "tcp", log)
	res := resolver.New()
	f := tcpconn.Factory{}
	p := pool.New[resolver.Route, *tcpconn.TCPConnection](r, res, f, opts.maxTotal, opts.maxPerRoute)
	defer p.Shutdown(context.Background())

	route := resolver.Route{Host: host, Port: port}

	out := drive(opts, func() resolver.Route { return route }, func(route resolver.Route) (*pool.Entry[resolver.Route, *tcpconn.TCPConnection], error) {
		fut, err := p.Lease(route, nil, 5*time.Second, nil)
		if err != nil {
			return nil, err
		}
		return fut.Result()
	}, func(e *pool.Entry[resolver.Route, *tcpconn.TCPConnection]) {
		p.Release(e, true)
	})

	report(opts, out, p.TotalStats())
	return nil
}

// drive runs opts.workers virtual users, each repeatedly leasing a route,
// holding it for opts.holdTime, and releasing it, paced by opts.ratePerSec,
// until opts.duration elapses.
func drive[R any, E any](
	opts *runOptions,
	pickRoute func() R,
	lease func(R) (E, error),
	release func(E),
) *results {
	res := &results{}
	var limiter *rate.Limiter
	if opts.ratePerSec > 0 {
		burst := int(opts.ratePerSec / 10)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.ratePerSec), burst)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}
				start := time.Now()
				entry, err := lease(pickRoute())
				res.record(time.Since(start), err)
				if err == nil {
					time.Sleep(opts.holdTime)
					release(entry)
				}
			}
		}()
	}
	wg.Wait()
	return res
}

func report(opts *runOptions, res *results, stats pool.TotalStats) {
	res.mu.Lock()
	defer res.mu.Unlock()

	fmt.Printf("duration:        %s\n", opts.duration)
	fmt.Printf("leases:          %d\n", res.leases.Load())
	fmt.Printf("failures:        %d\n", res.failures.Load())
	if len(res.latencies) > 0 {
		var sum time.Duration
		for _, d := range res.latencies {
			sum += d
		}
		fmt.Printf("avg lease time:  %s\n", sum/time.Duration(len(res.latencies)))
	}
	fmt.Printf("final leased:    %d\n", stats.Leased)
	fmt.Printf("final available: %d\n", stats.Available)
	fmt.Printf("final pending:   %d\n", stats.Pending)
}

