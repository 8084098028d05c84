package pool

import "fmt"

// TimeoutError is returned when a lease request's deadline elapses before
// it could be satisfied, or when the reactor reports a connect timeout.
type TimeoutError struct {
	// Route is rendered via fmt.Stringer if the route implements it,
	// otherwise via %v; kept as an interface so the error stays usable
	// across every instantiation of Pool[R, C].
	Route any
}

func (e *TimeoutError) Error() string {
	if e.Route == nil {
		return "connpool: lease timed out"
	}
	return fmt.Sprintf("connpool: lease timed out for route %v", e.Route)
}

// Timeout reports true so callers can use errors.As against the standard
// "is this a timeout" interface some libraries check for.
func (e *TimeoutError) Timeout() bool { return true }

// ShutDownError is returned synchronously by Lease once the pool has been
// shut down. It is never delivered via a Future — shutdown is a precondition
// failure, not an asynchronous outcome.
type ShutDownError struct{}

func (ShutDownError) Error() string { return "connpool: pool is shut down" }

// CancelledError is delivered to a request's Future when its underlying
// connect attempt was cancelled by the reactor, or when the Future itself
// was cancelled from outside the pool before it completed.
type CancelledError struct{}

func (CancelledError) Error() string { return "connpool: request cancelled" }

// ResolveError wraps a failure from an AddressResolver.
type ResolveError struct {
	Route any
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("connpool: resolve route %v: %v", e.Route, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ConnectError wraps a failure surfaced by the reactor's Failed callback,
// or by the ConnectionFactory when constructing a connection from a ready
// session.
type ConnectError struct {
	Route any
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connpool: connect to route %v: %v", e.Route, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
