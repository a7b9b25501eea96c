package graph

import (
	"sort"

	"github.com/classgraph/internal/classfile"
	"github.com/classgraph/internal/diagnostics"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/pkg/errors"
)

// annotationInherited is the binary name of java.lang.annotation.Inherited,
// the meta-annotation that triggers @Inherited propagation in the query
// layer.
const annotationInherited = "java.lang.annotation.Inherited"

// CrossLinker merges the unlinked class records produced by a scan's
// workers into a single ClassGraph. Single-threaded by design: callers feed
// it every unlinked record from every worker, in any order, then call
// Freeze once.
type CrossLinker struct {
	spec    *scanspec.ScanSpec
	records map[string]*ClassRecord
	log     *diagnostics.Log
}

// NewCrossLinker builds an empty CrossLinker. spec controls whether
// external stub records are retained for classes referenced but never
// scanned (EnableExternalClasses).
func NewCrossLinker(spec *scanspec.ScanSpec) *CrossLinker {
	return &CrossLinker{
		spec:    spec,
		records: make(map[string]*ClassRecord),
	}
}

// SetLog attaches a diagnostics log that Merge reports duplicate-FQN
// collisions to. Optional; a CrossLinker with no log attached merges
// silently.
func (cl *CrossLinker) SetLog(log *diagnostics.Log) {
	cl.log = log
}

// ensure returns the record for name, creating an external stub if this is
// the first time name has been referenced.
func (cl *CrossLinker) ensure(name string) *ClassRecord {
	if r, ok := cl.records[name]; ok {
		return r
	}
	r := newClassRecord(name)
	r.IsExternal = true
	cl.records[name] = r
	return r
}

// Merge folds one unlinked class record into the graph. On a first sight
// of u.ClassName, the stub (if any) is promoted to a fully scanned record.
// On a repeat sight (the same class reachable from two classpath roots),
// the first-seen record wins and u's originating classloader providers are
// merged into it; a conflicting (non-identical, non-empty) type signature between the two
// sightings is a fatal cross-linking error, since it means two physically
// different classfiles claim the same binary name.
func (cl *CrossLinker) Merge(u *classfile.UnlinkedClassRecord) error {
	if u == nil {
		return nil
	}

	rec, existed := cl.records[u.ClassName]
	if !existed {
		rec = newClassRecord(u.ClassName)
		cl.records[u.ClassName] = rec
	}

	if existed && !rec.IsExternal {
		if rec.TypeSignatureRaw != "" && u.TypeSignature != "" && rec.TypeSignatureRaw != u.TypeSignature {
			return errors.New(errors.CodeGraphInconsistency,
				"conflicting type signature for "+u.ClassName+" across classpath roots")
		}
		if cl.log != nil {
			cl.log.Warn("duplicate class %s: keeping first sighting from %s, also seen in %s",
				u.ClassName, rec.Origin.Path, u.Origin.Path)
		}
		rec.Providers = mergeProviderLists(rec.Providers, providersOf(u))
		return nil
	}

	rec.IsExternal = false
	rec.Modifiers = u.Modifiers
	rec.IsInterface = u.IsInterface
	rec.IsAnnotation = u.IsAnnotation
	rec.TypeSignatureRaw = u.TypeSignature
	rec.EnclosingMethod = u.EnclosingMethod
	rec.Origin = u.Origin
	rec.Providers = providersOf(u)
	rec.Fields = u.Fields
	rec.Methods = u.Methods
	rec.Annotations = u.Annotations
	rec.AnnotationDefaults = u.AnnotationDefaults
	rec.HasInheritedMeta = hasAnnotation(u.Annotations, annotationInherited)

	if len(u.Fields) > 0 {
		constants := make(map[string]interface{})
		for _, f := range u.Fields {
			if f.ConstantValue != nil {
				constants[f.Name] = f.ConstantValue
			}
		}
		if len(constants) > 0 {
			rec.ConstantValues = constants
		}
	}

	cl.linkStructural(rec, u)
	return nil
}

func (cl *CrossLinker) linkStructural(rec *ClassRecord, u *classfile.UnlinkedClassRecord) {
	if u.SuperclassName != "" {
		super := cl.ensure(u.SuperclassName)
		addRelation(rec, super, Superclasses)
	}

	for _, iface := range u.InterfaceNames {
		ifaceRec := cl.ensure(iface)
		addRelation(rec, ifaceRec, ImplementedInterfaces)
	}

	for _, pair := range u.InnerClasses {
		if pair.OuterName == "" || pair.OuterName != rec.Name && pair.InnerName != rec.Name {
			continue
		}
		if pair.OuterName == rec.Name {
			inner := cl.ensure(pair.InnerName)
			addRelation(rec, inner, ContainsInnerClass)
		} else {
			outer := cl.ensure(pair.OuterName)
			addRelation(rec, outer, ContainedWithinOuterClass)
		}
	}

	for _, ann := range u.Annotations {
		annRec := cl.ensure(ann.ClassName)
		addRelation(rec, annRec, ClassAnnotations)
	}

	for _, m := range u.Methods {
		for _, ann := range m.Annotations {
			annRec := cl.ensure(ann.ClassName)
			addRelation(rec, annRec, MethodAnnotations)
		}
	}

	for _, f := range u.Fields {
		for _, ann := range f.Annotations {
			annRec := cl.ensure(ann.ClassName)
			addRelation(rec, annRec, FieldAnnotations)
		}
	}
}

// Freeze finalizes the graph: external stub records are dropped unless
// EnableExternalClasses is set, and the result becomes safe for
// concurrent read-only use by the query layer.
func (cl *CrossLinker) Freeze() *ClassGraph {
	keep := cl.records
	if cl.spec != nil && !cl.spec.EnableExternalClasses {
		keep = make(map[string]*ClassRecord, len(cl.records))
		for name, rec := range cl.records {
			if !rec.IsExternal {
				keep[name] = rec
			}
		}
	}

	names := make([]string, 0, len(keep))
	for name := range keep {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		keep[name].index = i
	}

	return &ClassGraph{records: keep}
}

func providersOf(u *classfile.UnlinkedClassRecord) []string {
	if u.Origin.Path == "" {
		return nil
	}
	return []string{u.Origin.Path}
}

// mergeProviderLists appends entries from b not already present in a,
// preserving a's order (first-seen-wins).
func mergeProviderLists(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	for _, p := range a {
		seen[p] = true
	}
	out := a
	for _, p := range b {
		if !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	return out
}

func hasAnnotation(anns []classfile.AnnotationRecord, className string) bool {
	for _, a := range anns {
		if a.ClassName == className {
			return true
		}
	}
	return false
}

// ClassGraph is the frozen, concurrently-readable result of a scan's
// cross-linking phase.
type ClassGraph struct {
	records map[string]*ClassRecord
}

// Lookup returns the record for name, if present.
func (g *ClassGraph) Lookup(name string) (*ClassRecord, bool) {
	r, ok := g.records[name]
	return r, ok
}

// All returns every record in the graph, sorted lexicographically by name.
func (g *ClassGraph) All() []*ClassRecord {
	names := make([]string, 0, len(g.records))
	for name := range g.records {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*ClassRecord, len(names))
	for i, name := range names {
		out[i] = g.records[name]
	}
	return out
}

// Len reports the number of records in the graph.
func (g *ClassGraph) Len() int { return len(g.records) }
