package pool

import (
	"context"
	"net"
	"time"
)

// ReactorStatus mirrors the I/O reactor's lifecycle. Only the Cancelled
// callback handler consults it.
type ReactorStatus int

const (
	ReactorInactive ReactorStatus = iota
	ReactorActive
	ReactorShuttingDown
	ReactorShutDown
)

// Session is whatever the reactor hands to a ConnectionFactory once a
// connect completes — typically a net.Conn, but left opaque so the reactor
// and factory can agree on a richer type (e.g. one carrying negotiated TLS
// state) without the pool core caring.
type Session = any

// Handle is a single outstanding (or just-resolved) connect operation.
type Handle interface {
	// SetConnectTimeout adjusts how long the reactor will wait before
	// calling the callback's TimedOut method.
	SetConnectTimeout(d time.Duration)
	// Cancel requests the reactor abandon this connect attempt.
	Cancel()
	// Session returns the ready I/O session once Completed has fired.
	Session() Session
	// Err returns the failure reported to Failed, if any.
	Err() error
}

// ConnectCallback receives exactly one of the four terminal notifications
// for a Handle returned by ConnectionInitiator.Connect.
type ConnectCallback interface {
	Completed(h Handle)
	Cancelled(h Handle)
	Failed(h Handle, err error)
	TimedOut(h Handle)
}

// ConnectionInitiator is the asynchronous, non-blocking I/O reactor the
// pool core treats as an external collaborator. It never blocks the calling
// goroutine; outcomes arrive later via the supplied ConnectCallback.
type ConnectionInitiator interface {
	Connect(remote, local net.Addr, attachment any, cb ConnectCallback) Handle
	Status() ReactorStatus
	Shutdown(ctx context.Context) error
}

// AddressResolver turns a route into the socket addresses needed to dial
// it. ResolveLocal may return (nil, nil) to mean "let the OS pick".
type AddressResolver[R any] interface {
	ResolveRemote(route R) (net.Addr, error)
	ResolveLocal(route R) (net.Addr, error)
}

// ConnectionFactory builds a wire-level connection C from a route and the
// reactor's ready session, once a connect has completed.
type ConnectionFactory[R any, C Connection] interface {
	Create(route R, session Session) (C, error)
}
