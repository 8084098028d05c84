// Package resolver turns a Route into the socket addresses the reactor
// package needs to dial, using the standard library's DNS resolver.
package resolver

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Route identifies a destination the pool partitions connections by: a
// host/port pair to dial, plus an optional local bind address. Two Routes
// compare equal (and therefore pool to the same entries) iff every field
// matches, which is what makes Route usable as the pool's comparable R.
type Route struct {
	Host string
	Port int

	// LocalHost, if set, binds outgoing connections to a specific local
	// address — useful for routing traffic out a particular interface.
	LocalHost string
}

func (r Route) String() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// DNSResolver resolves Routes via net.Resolver, with a bounded lookup
// timeout so a slow or hung DNS server can't stall the pool's connect
// scan (DNS lookups happen on the goroutine that's scanning pending
// requests, so they must stay bounded).
type DNSResolver struct {
	resolver      *net.Resolver
	lookupTimeout time.Duration
}

// New builds a DNSResolver using net.DefaultResolver and a 2 second
// lookup timeout.
func New() *DNSResolver {
	return &DNSResolver{resolver: net.DefaultResolver, lookupTimeout: 2 * time.Second}
}

// WithResolver overrides the underlying net.Resolver (e.g. to point at a
// specific nameserver in tests).
func (d *DNSResolver) WithResolver(r *net.Resolver) *DNSResolver {
	d.resolver = r
	return d
}

// ResolveRemote looks up route.Host and returns the first address paired
// with route.Port. If Host is already a literal IP, no network lookup
// happens.
func (d *DNSResolver) ResolveRemote(route Route) (net.Addr, error) {
	if ip := net.ParseIP(route.Host); ip != nil {
		return &net.TCPAddr{IP: ip, Port: route.Port}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.lookupTimeout)
	defer cancel()

	ips, err := d.resolver.LookupIP(ctx, "ip", route.Host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no addresses found", Name: route.Host}
	}
	return &net.TCPAddr{IP: ips[0], Port: route.Port}, nil
}

// ResolveLocal resolves route.LocalHost, or returns (nil, nil) to let the
// OS pick the outgoing interface when unset.
func (d *DNSResolver) ResolveLocal(route Route) (net.Addr, error) {
	if route.LocalHost == "" {
		return nil, nil
	}
	if ip := net.ParseIP(route.LocalHost); ip != nil {
		return &net.TCPAddr{IP: ip}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.lookupTimeout)
	defer cancel()
	ips, err := d.resolver.LookupIP(ctx, "ip", route.LocalHost)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no addresses found", Name: route.LocalHost}
	}
	return &net.TCPAddr{IP: ips[0]}, nil
}
