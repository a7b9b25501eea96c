// Package workqueue drains a fixed list of (classpath-root, package-root-prefix)
// units across a fixed-size worker pool, sharing one cooperative
// interruption flag.
//
// The pool itself is pkg/parallel.WorkerPool kept unmodified (it is already
// domain-agnostic generic code); this package supplies the unit type and
// the shared Interrupter around it.
package workqueue

import (
	"context"

	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/pkg/parallel"
)

// DefaultWorkers is the default worker count; overridable by the caller.
const DefaultWorkers = 6

// Unit is one item of work handed to a worker: a classpath root, plus the
// package-root prefix (if any) scoping which subtree of an archive root to
// walk.
type Unit struct {
	Root              classpath.Root
	PackageRootPrefix string
}

// ProcessFunc processes one Unit. Implementations must poll interrupter at
// each file/entry boundary and return promptly once it is set.
type ProcessFunc[R any] func(ctx context.Context, unit Unit, interrupter *Interrupter) (R, error)

// Queue runs a ProcessFunc across workers over a fixed unit list.
type Queue[R any] struct {
	Workers     int
	Interrupter *Interrupter
}

// NewQueue builds a Queue with the given worker count (DefaultWorkers if
// workers <= 0) and a fresh Interrupter shared by every worker.
func NewQueue[R any](workers int) *Queue[R] {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Queue[R]{Workers: workers, Interrupter: NewInterrupter()}
}

// Run drains units across q.Workers goroutines, invoking fn for each and
// collecting results in input order. Cancelling ctx or calling
// q.Interrupter.Set() both cause in-flight and queued units to stop early;
// callers distinguish an interrupted run by checking q.Interrupter.IsSet()
// after Run returns.
func (q *Queue[R]) Run(ctx context.Context, units []Unit, fn ProcessFunc[R]) []parallel.TaskResult[Unit, R] {
	pool := parallel.NewWorkerPool[Unit, R](parallel.DefaultPoolConfig().WithWorkers(q.Workers))
	return pool.ExecuteFunc(ctx, units, func(ctx context.Context, unit Unit) (R, error) {
		return fn(ctx, unit, q.Interrupter)
	})
}
