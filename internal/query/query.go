// Package query answers reachability and filter queries against a frozen
// internal/graph.ClassGraph, respecting the scan spec's blacklist and
// external-class settings.
//
// Grounded on internal/parser/hprof's dominance/traversal
// helpers (visited-set-guarded graph walks) for ReachableAndDirect, and on
// internal/callgraph/writer.go for the "always emit a stably sorted list"
// discipline every exported query here follows.
package query

import (
	"sort"

	"github.com/classgraph/internal/graph"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/pkg/collections"
)

// Engine answers queries against one frozen class graph.
type Engine struct {
	g       *graph.ClassGraph
	matcher *scanspec.Matcher
	spec    *scanspec.ScanSpec
}

// NewEngine builds a query Engine over g, applying spec's blacklist and
// external-class settings to every result.
func NewEngine(g *graph.ClassGraph, spec *scanspec.ScanSpec) *Engine {
	return &Engine{g: g, matcher: scanspec.NewMatcher(spec), spec: spec}
}

// ClassTypePredicate classifies a ClassRecord by its interface/annotation
// bits.
type ClassTypePredicate int

const (
	All ClassTypePredicate = iota
	StandardClass
	Interface
	Annotation
	InterfaceOrAnnotation
)

// matches reports whether rec satisfies p. An "implemented interface"
// (the Interface predicate) is either a non-annotation
// interface, or an annotation type that some class in the graph actually
// implements (annotations can technically appear on an implements clause
// via annotation-type declarations acting as their own marker interface).
func matches(rec *graph.ClassRecord, p ClassTypePredicate) bool {
	switch p {
	case All:
		return true
	case StandardClass:
		return !rec.IsInterface && !rec.IsAnnotation
	case Interface:
		return (rec.IsInterface && !rec.IsAnnotation) ||
			(rec.IsAnnotation && len(rec.Related(graph.ClassesImplementing)) > 0)
	case Annotation:
		return rec.IsAnnotation
	case InterfaceOrAnnotation:
		return rec.IsInterface || rec.IsAnnotation
	default:
		return false
	}
}

// Filter narrows set to records matching predicate p.
func Filter(set []*graph.ClassRecord, p ClassTypePredicate) []*graph.ClassRecord {
	if p == All {
		return set
	}
	out := make([]*graph.ClassRecord, 0, len(set))
	for _, rec := range set {
		if matches(rec, p) {
			out = append(out, rec)
		}
	}
	return out
}

// BlacklistFilter drops blacklisted classes (by package/jar patterns) and,
// unless EnableExternalClasses is set, drops external (stub) classes.
func (e *Engine) BlacklistFilter(set []*graph.ClassRecord) []*graph.ClassRecord {
	out := make([]*graph.ClassRecord, 0, len(set))
	for _, rec := range set {
		if rec.IsExternal && (e.spec == nil || !e.spec.EnableExternalClasses) {
			continue
		}
		if !e.matcher.ClassAllowed(rec.Name) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ReachableAndDirect walks kind's edges from start, returning (i) direct
// neighbors and (ii) the full transitive closure excluding start, breaking
// cycles with a visited set.
func ReachableAndDirect(start *graph.ClassRecord, kind graph.RelationKind) (reachable, direct []*graph.ClassRecord) {
	direct = start.Related(kind)

	visited := collections.NewVersionedBitset(start.Index() + 1)
	visited.Set(start.Index())
	var out []*graph.ClassRecord

	stack := collections.NewStack[*graph.ClassRecord](len(direct))
	for _, d := range direct {
		stack.Push(d)
		visited.Set(d.Index())
	}

	for !stack.IsEmpty() {
		rec, _ := stack.Pop()
		out = append(out, rec)

		for _, next := range rec.Related(kind) {
			if visited.Test(next.Index()) {
				continue
			}
			visited.Set(next.Index())
			stack.Push(next)
		}
	}

	sortByName(out)
	sortByName(direct)
	return out, direct
}

func sortByName(recs []*graph.ClassRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
}
