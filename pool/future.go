package pool

import "sync"

// Future is a one-shot promise for a leased Entry. It is safe to read from
// multiple goroutines; exactly one of complete/fail/cancel may take effect.
type Future[R comparable, C Connection] struct {
	done      chan struct{}
	mu        sync.Mutex
	completed bool
	entry     *Entry[R, C]
	err       error
}

func newFuture[R comparable, C Connection]() *Future[R, C] {
	return &Future[R, C]{done: make(chan struct{})}
}

// complete resolves the future successfully. Returns false if it was
// already resolved.
func (f *Future[R, C]) complete(e *Entry[R, C]) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return false
	}
	f.completed = true
	f.entry = e
	close(f.done)
	return true
}

// fail resolves the future with an error. Returns false if it was already
// resolved.
func (f *Future[R, C]) fail(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return false
	}
	f.completed = true
	f.err = err
	close(f.done)
	return true
}

// Done returns a channel closed once the future is resolved.
func (f *Future[R, C]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future is resolved and returns its outcome.
func (f *Future[R, C]) Result() (*Entry[R, C], error) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entry, f.err
}

// IsDone reports whether the future has already resolved, without blocking.
func (f *Future[R, C]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cancel resolves the future with CancelledError if it hasn't already
// resolved. It does not reach back into the pool — callers that want the
// underlying connect attempt cancelled too should release any entry the
// future may still produce once it resolves.
func (f *Future[R, C]) Cancel() bool {
	return f.fail(CancelledError{})
}
