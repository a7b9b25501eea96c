// Package scan is the top-level orchestrator: it resolves a classpath,
// drains it through the work-queue's worker pool, cross-links every
// unlinked record the workers produced, and freezes the result into a
// queryable class graph.
//
// Grounded on internal/scheduler.Scheduler for the
// start/cancel/result lifecycle shape (a config struct, a constructor
// taking its collaborators, a logger field defaulting to a no-op),
// generalized from a long-running poll loop to a single run that returns
// a future-like handle.
package scan

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/diagnostics"
	"github.com/classgraph/internal/graph"
	"github.com/classgraph/internal/query"
	"github.com/classgraph/internal/resource"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/internal/workqueue"
	"github.com/classgraph/pkg/errors"
)

// ResourceMatcher decides whether a non-classfile classpath entry should be
// recorded as a resource.Source. relPath is relative to the classpath
// element's package root.
type ResourceMatcher func(relPath string) bool

// Scanner holds everything needed to run scans: the resolved spec, the
// classpath resolver, and the shared archive pool. One Scanner can run any
// number of scans sequentially or concurrently; it owns no per-scan state.
type Scanner struct {
	Spec        *scanspec.ScanSpec
	Resolver    *classpath.Resolver
	ArchivePool *archive.Pool

	matcher *scanspec.Matcher

	workers       int
	resourceMatch ResourceMatcher
}

// Option configures a Scanner at construction time.
type Option func(*Scanner)

// WithWorkers overrides the work queue's worker count (workqueue.DefaultWorkers
// otherwise).
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = n }
}

// WithResourceMatcher enables resource enumeration: every non-classfile
// classpath entry for which match returns true is recorded as a
// resource.Source on the scan Result.
func WithResourceMatcher(match ResourceMatcher) Option {
	return func(s *Scanner) { s.resourceMatch = match }
}

// NewScanner builds a Scanner. pool may be nil only if the resolver was
// built with a nil OpenArchive and the caller never expects an Archive
// root in practice; archive-bearing roots otherwise require a non-nil pool.
func NewScanner(spec *scanspec.ScanSpec, resolver *classpath.Resolver, pool *archive.Pool, opts ...Option) *Scanner {
	s := &Scanner{
		Spec:        spec,
		Resolver:    resolver,
		ArchivePool: pool,
		matcher:     scanspec.NewMatcher(spec),
		workers:     workqueue.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one scan: either an explicit override classpath or a
// set of classloader providers, passed straight through to
// classpath.Resolver.Resolve.
type Request struct {
	Override  string
	Providers []classpath.Provider
}

// Result is everything a completed scan produced.
type Result struct {
	Graph     *graph.ClassGraph
	Engine    *query.Engine
	Resources []*resource.Source

	// NonFatalErrors collects every per-file and per-root resolution or
	// parse failure that did not abort the scan.
	NonFatalErrors []error

	Log *diagnostics.Log
}

// Start begins a scan in the background and returns a handle for waiting
// on or cancelling it. ctx bounds the whole scan; cancelling ctx has the
// same effect as calling the returned Future's Cancel method.
func (s *Scanner) Start(ctx context.Context, req Request) *Future {
	runCtx, cancel := context.WithCancel(ctx)
	interrupter := workqueue.NewInterrupter()

	fut := &Future{cancel: cancel, interrupter: interrupter, done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		fut.result, fut.err = s.run(runCtx, req, interrupter)
	}()
	return fut
}

// Run is a convenience wrapper for callers with no need to cancel
// mid-flight: it starts the scan and blocks until it finishes.
func (s *Scanner) Run(ctx context.Context, req Request) (*Result, error) {
	return s.Start(ctx, req).Wait()
}

func (s *Scanner) run(ctx context.Context, req Request, interrupter *workqueue.Interrupter) (*Result, error) {
	if req.Override == "" && len(req.Providers) == 0 {
		return nil, errors.New(errors.CodeConfigError, "scan request has neither an override classpath nor classloader providers")
	}

	log := diagnostics.New("scan", diagnostics.LevelInfo)

	roots, err := s.Resolver.Resolve(req.Override, req.Providers)
	if err != nil {
		return nil, errors.Wrap(errors.CodeResolutionError, "resolve classpath", err)
	}
	roots = s.filterRoots(roots, log)

	units := make([]workqueue.Unit, 0, len(roots))
	for _, root := range roots {
		units = append(units, workqueue.Unit{Root: root, PackageRootPrefix: root.PackageRootPrefix})
	}

	queue := &workqueue.Queue[unitResult]{Workers: s.workerCount(), Interrupter: interrupter}
	taskResults := queue.Run(ctx, units, s.processUnit(log))

	if interrupter.IsSet() || ctx.Err() != nil {
		return nil, errors.New(errors.CodeInterrupted, "scan cancelled")
	}

	cl := graph.NewCrossLinker(s.Spec)
	cl.SetLog(log)
	var resources []*resource.Source
	var nonFatal []error

	for _, tr := range taskResults {
		if tr.Error != nil {
			nonFatal = append(nonFatal, tr.Error)
			continue
		}
		for _, rec := range tr.Result.records {
			if err := cl.Merge(rec); err != nil {
				return nil, err
			}
		}
		resources = append(resources, tr.Result.resources...)
		nonFatal = append(nonFatal, tr.Result.errors...)
	}

	g := cl.Freeze()
	engine := query.NewEngine(g, s.Spec)

	return &Result{
		Graph:          g,
		Engine:         engine,
		Resources:      resources,
		NonFatalErrors: nonFatal,
		Log:            log,
	}, nil
}

func (s *Scanner) workerCount() int {
	if s.workers <= 0 {
		return workqueue.DefaultWorkers
	}
	return s.workers
}

// filterRoots drops archive roots blacklisted by jar name or recognized as
// platform system jars, per the scan spec's jar-granularity filters.
// Directory and module roots are never jar-filtered.
func (s *Scanner) filterRoots(roots []classpath.Root, log *diagnostics.Log) []classpath.Root {
	kept := make([]classpath.Root, 0, len(roots))
	for _, root := range roots {
		if root.Kind != classpath.Archive {
			kept = append(kept, root)
			continue
		}
		leaf := filepath.Base(root.Path)
		if !s.matcher.JarAllowed(leaf) {
			log.Info("dropping blacklisted jar %s", root.Path)
			continue
		}
		if s.Spec.BlacklistSystemJars && isSystemJar(root.Path) {
			log.Info("dropping system jar %s", root.Path)
			continue
		}
		kept = append(kept, root)
	}
	return kept
}

// isSystemJar recognizes the handful of platform runtime jar names/paths a
// JDK installation is built from. Best-effort: it is a name/path heuristic,
// not an authoritative classification.
func isSystemJar(path string) bool {
	leaf := strings.ToLower(filepath.Base(path))
	switch leaf {
	case "rt.jar", "charsets.jar", "jce.jar", "jsse.jar", "jrt-fs.jar", "resources.jar":
		return true
	}
	normalized := filepath.ToSlash(path)
	return strings.Contains(normalized, "/jre/lib/") || strings.Contains(normalized, "/lib/modules")
}
