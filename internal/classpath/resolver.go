package classpath

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/classgraph/pkg/errors"
)

// Logger is the minimal logging surface the resolver needs. Satisfied by
// internal/diagnostics.Log and by pkg/utils.Logger.
type Logger interface {
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{}) {}

// OpenArchive opens (or reuses, from a pool) an archive root at canonical
// path, scoped to packageRootPrefix, returning its handle. Implemented by
// internal/archive.Pool.Open; accepted here as a function value so the
// resolver package never imports internal/archive.
type OpenArchive func(path, packageRootPrefix string) (ArchiveHandle, error)

// Resolver produces the ordered, deduplicated list of classpath Roots a
// scan should walk. Grounded on the scheduler's source strategy
// dispatch (internal/scheduler/source/source.go) for the handler-registry
// shape, generalized from "which source emits tasks" to "which handler
// claims this provider".
type Resolver struct {
	Registry     *Registry
	OpenArchive  OpenArchive
	Logger       Logger
	IgnoreParent bool
}

// NewResolver builds a Resolver. openArchive may be nil if the scan never
// needs manifest Class-Path chasing (e.g. directory-only classpaths);
// calling Resolve with an archive entry in that case treats it as a plain
// Archive root with no manifest following.
func NewResolver(registry *Registry, openArchive OpenArchive, logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{Registry: registry, OpenArchive: openArchive, Logger: logger}
}

type pendingEntry struct {
	entry     string
	provider  string
	providers []string
}

// Resolve produces the ordered root list. If override is non-empty it is
// split on the platform path separator and used verbatim in place of
// walking providers. Otherwise providers is walked depth-first, honoring
// IgnoreParent.
func (r *Resolver) Resolve(override string, providers []Provider) ([]Root, error) {
	var pending []pendingEntry

	if override != "" {
		for _, e := range filepath.SplitList(override) {
			if e == "" {
				continue
			}
			pending = append(pending, pendingEntry{entry: e, provider: "override", providers: []string{"override"}})
		}
	} else {
		seenProviders := make(map[Provider]bool)
		stack := append([]Provider{}, providers...)
		for len(stack) > 0 {
			p := stack[0]
			stack = stack[1:]
			if seenProviders[p] {
				continue
			}
			seenProviders[p] = true

			entries, children, claimed, err := r.Registry.Resolve(p)
			if !claimed {
				entries, err = p.Entries()
			}
			if err != nil {
				r.Logger.Warn("classpath: provider %s failed: %v", p.Name(), err)
				continue
			}
			for _, e := range entries {
				pending = append(pending, pendingEntry{entry: e, provider: p.Name(), providers: []string{p.Name()}})
			}

			stack = append(children, stack...)

			if !r.IgnoreParent {
				if parent, ok := p.Parent(); ok {
					stack = append(stack, parent)
				}
			}
		}
	}

	return r.canonicalizeAndDedup(pending)
}

func (r *Resolver) canonicalizeAndDedup(pending []pendingEntry) ([]Root, error) {
	seen := make(map[string]int) // root Key -> index into result
	var result []Root

	for i := 0; i < len(pending); i++ {
		pe := pending[i]

		entry := pe.entry
		if strings.HasSuffix(entry, string(filepath.Separator)+"*") || strings.HasSuffix(entry, "/*") {
			dir := strings.TrimSuffix(strings.TrimSuffix(entry, "*"), string(filepath.Separator))
			dir = strings.TrimSuffix(dir, "/")
			jars, err := expandWildcardDir(dir)
			if err != nil {
				r.Logger.Warn("classpath: cannot expand wildcard dir %s: %v", dir, err)
				continue
			}
			for _, j := range jars {
				pending = append(pending, pendingEntry{entry: j, provider: pe.provider, providers: pe.providers})
			}
			continue
		}

		canonical, err := filepath.EvalSymlinks(entry)
		if err != nil {
			canonical, err = filepath.Abs(entry)
			if err != nil {
				r.Logger.Warn("classpath: cannot resolve %s: %v", entry, err)
				continue
			}
		}

		info, err := os.Stat(canonical)
		if err != nil {
			r.Logger.Warn("classpath: root does not exist, skipping: %s", canonical)
			continue
		}

		var root Root
		if info.IsDir() {
			root = Root{Kind: Directory, Path: canonical, Providers: pe.providers}
		} else {
			root = Root{Kind: Archive, Path: canonical, Providers: pe.providers}
			if r.OpenArchive != nil {
				handle, err := r.OpenArchive(canonical, "")
				if err != nil {
					r.Logger.Warn("classpath: cannot open archive %s: %v", canonical, err)
					continue
				}
				root.Archive = handle

				classPathEntries, err := handle.ManifestClassPath()
				if err != nil {
					r.Logger.Warn("classpath: cannot read manifest for %s: %v", canonical, err)
				}
				for _, cp := range classPathEntries {
					resolved := cp
					if !filepath.IsAbs(resolved) {
						resolved = filepath.Join(filepath.Dir(canonical), resolved)
					}
					pending = append(pending, pendingEntry{
						entry:     resolved,
						provider:  pe.provider,
						providers: pe.providers,
					})
				}
			}
		}

		key := root.Key()
		if idx, ok := seen[key]; ok {
			result[idx].Providers = mergeProviders(result[idx].Providers, root.Providers)
			continue
		}
		seen[key] = len(result)
		result = append(result, root)
	}

	return result, nil
}

// mergeProviders unions b into a, deduplicated, order-preserving with a's
// elements first (first-seen wins).
func mergeProviders(a, b []string) []string {
	have := make(map[string]bool, len(a))
	for _, p := range a {
		have[p] = true
	}
	out := append([]string{}, a...)
	for _, p := range b {
		if !have[p] {
			have[p] = true
			out = append(out, p)
		}
	}
	return out
}

func expandWildcardDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeResolutionError, "read wildcard classpath dir", err)
	}
	var jars []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".jar") || strings.HasSuffix(strings.ToLower(name), ".zip") {
			jars = append(jars, filepath.Join(dir, name))
		}
	}
	sort.Strings(jars)
	return jars, nil
}
