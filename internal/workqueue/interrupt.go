package workqueue

import "sync/atomic"

// Interrupter is a single shared, settable, pollable cancellation flag.
// Workers poll it between files and before each archive entry; setting it
// causes every worker to drain empty and return, surfacing as an
// Interrupted failure to the caller.
type Interrupter struct {
	flag atomic.Bool
}

// NewInterrupter returns a fresh, unset Interrupter.
func NewInterrupter() *Interrupter {
	return &Interrupter{}
}

// Set raises the flag. Idempotent.
func (i *Interrupter) Set() {
	i.flag.Store(true)
}

// IsSet reports whether the flag has been raised.
func (i *Interrupter) IsSet() bool {
	return i.flag.Load()
}
