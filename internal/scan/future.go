package scan

import "github.com/classgraph/internal/workqueue"

// Future is the cancellable handle returned by Scanner.Start. Callers may
// cancel a running scan by invoking a cancel method on the returned
// future-like handle.
type Future struct {
	cancel      func()
	interrupter *workqueue.Interrupter
	done        chan struct{}
	result      *Result
	err         error
}

// Cancel requests cooperative cancellation: it sets the shared interrupter
// every worker polls, and cancels the context the scan is running under.
// Safe to call more than once and safe to call after the scan has already
// finished.
func (f *Future) Cancel() {
	f.interrupter.Set()
	f.cancel()
}

// Wait blocks until the scan finishes (successfully, with a fatal error,
// or via cancellation) and returns its outcome.
func (f *Future) Wait() (*Result, error) {
	<-f.done
	return f.result, f.err
}

// Done returns a channel closed when the scan finishes, for callers that
// want to select on it alongside other events.
func (f *Future) Done() <-chan struct{} {
	return f.done
}
