// Package graph holds the linked class graph: ClassRecord nodes keyed by
// name, joined by the twelve directed relation kinds, built by a
// single-threaded CrossLinker out of the unlinked records a scan's workers
// produce.
//
// Grounded on internal/callgraph: an arena of
// by-key records (CallGraph.nodeMap/Nodes) built incrementally via
// AddNode/AddEdge, frozen into a read path after Cleanup. ClassRecord
// plays the role of callgraph.Node; the Relations map plays the role of
// callgraph.Edge, generalized from a single edge set to twelve named
// relation kinds.
package graph

import (
	"sort"

	"github.com/classgraph/internal/classfile"
)

// ClassRecord is one linked class graph node. Mutable only while a
// CrossLinker is merging; read-only and concurrency-safe once the owning
// ClassGraph is frozen.
type ClassRecord struct {
	Name      string
	Modifiers uint16

	// index is a dense, 0-based position assigned across every record in
	// the owning ClassGraph when it is frozen. It exists purely so the
	// query layer can track visited nodes in a pkg/collections.VersionedBitset
	// instead of a map[string]bool.
	index int

	IsInterface  bool
	IsAnnotation bool

	// IsExternal is true iff this class was referenced by a relation but
	// never itself parsed from a classfile during the scan.
	IsExternal bool

	// HasInheritedMeta records whether this class's own annotation type is
	// itself meta-annotated @java.lang.annotation.Inherited; used by the
	// query layer's annotation-propagation rule.
	HasInheritedMeta bool

	// TypeSignatureRaw is the raw Signature attribute string, if present.
	// internal/signature parses it lazily on demand; this record never
	// stores the parsed form since most callers never ask for it.
	TypeSignatureRaw string

	EnclosingMethod string

	Origin    classfile.ClasspathElementRef
	Providers []string

	Fields             []classfile.FieldRecord
	Methods            []classfile.MethodRecord
	Annotations        []classfile.AnnotationRecord
	AnnotationDefaults []classfile.AnnotationParam

	// ConstantValues maps a static final field's name to its resolved
	// constant, populated only when fields are indexed and a
	// ConstantValue attribute was present.
	ConstantValues map[string]interface{}

	// relations holds, per RelationKind, the set of related records keyed
	// by name (both for O(1) dedup during linking and because insertion
	// order is not itself meaningful — the query layer re-sorts on read).
	relations map[RelationKind]map[string]*ClassRecord
}

func newClassRecord(name string) *ClassRecord {
	return &ClassRecord{
		Name:      name,
		relations: make(map[RelationKind]map[string]*ClassRecord),
	}
}

// Index returns this record's dense position within its owning ClassGraph,
// assigned at Freeze time.
func (c *ClassRecord) Index() int { return c.index }

// Related returns the classes this record points to via kind, in
// lexicographic order by name.
func (c *ClassRecord) Related(kind RelationKind) []*ClassRecord {
	set := c.relations[kind]
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*ClassRecord, len(names))
	for i, name := range names {
		out[i] = set[name]
	}
	return out
}

// addRelation links from -> to under kind, and to -> from under kind's
// reverse.
func addRelation(from, to *ClassRecord, kind RelationKind) {
	if from.relations[kind] == nil {
		from.relations[kind] = make(map[string]*ClassRecord)
	}
	from.relations[kind][to.Name] = to

	rev := kind.Reverse()
	if to.relations[rev] == nil {
		to.relations[rev] = make(map[string]*ClassRecord)
	}
	to.relations[rev][from.Name] = from
}
