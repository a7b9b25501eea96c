package query

import "github.com/classgraph/internal/graph"

// ClassesWithAnnotation returns every class directly annotated with
// annotationName, plus — when that annotation type carries the
// @Inherited meta-annotation — every standard-class (non-interface)
// subclass of each directly-annotated class (interfaces ignore
// @Inherited). Result is blacklist-filtered and sorted by name.
func (e *Engine) ClassesWithAnnotation(annotationName string) []*graph.ClassRecord {
	annRec, ok := e.g.Lookup(annotationName)
	if !ok {
		return nil
	}

	direct := annRec.Related(graph.ClassesWithClassAnnotation)

	seen := make(map[string]*graph.ClassRecord, len(direct))
	for _, rec := range direct {
		seen[rec.Name] = rec
	}

	if annRec.HasInheritedMeta {
		for _, rec := range direct {
			if rec.IsInterface || rec.IsAnnotation {
				continue
			}
			subclasses, _ := ReachableAndDirect(rec, graph.Subclasses)
			for _, sub := range subclasses {
				if sub.IsInterface || sub.IsAnnotation {
					continue
				}
				seen[sub.Name] = sub
			}
		}
	}

	out := make([]*graph.ClassRecord, 0, len(seen))
	for _, rec := range seen {
		out = append(out, rec)
	}
	out = e.BlacklistFilter(out)
	sortByName(out)
	return out
}

// AnnotationsOnClass returns every annotation directly present on
// className, plus every @Inherited annotation present on any of its
// superclasses, lifted transitively up the superclass chain. Result is
// sorted by name.
func (e *Engine) AnnotationsOnClass(className string) []*graph.ClassRecord {
	rec, ok := e.g.Lookup(className)
	if !ok {
		return nil
	}

	seen := make(map[string]*graph.ClassRecord)
	for _, ann := range rec.Related(graph.ClassAnnotations) {
		seen[ann.Name] = ann
	}

	ancestors, _ := ReachableAndDirect(rec, graph.Superclasses)
	for _, ancestor := range ancestors {
		for _, ann := range ancestor.Related(graph.ClassAnnotations) {
			if ann.HasInheritedMeta {
				seen[ann.Name] = ann
			}
		}
	}

	out := make([]*graph.ClassRecord, 0, len(seen))
	for _, ann := range seen {
		out = append(out, ann)
	}
	sortByName(out)
	return out
}

// SubclassesOf returns className's full transitive subclass set.
func (e *Engine) SubclassesOf(className string) []*graph.ClassRecord {
	rec, ok := e.g.Lookup(className)
	if !ok {
		return nil
	}
	reachable, _ := ReachableAndDirect(rec, graph.Subclasses)
	return e.BlacklistFilter(reachable)
}

// SuperclassesOf returns className's full ancestor chain.
func (e *Engine) SuperclassesOf(className string) []*graph.ClassRecord {
	rec, ok := e.g.Lookup(className)
	if !ok {
		return nil
	}
	reachable, _ := ReachableAndDirect(rec, graph.Superclasses)
	return e.BlacklistFilter(reachable)
}

// SubtypesImplementing returns every class or interface that implements
// interfaceName, directly or via an intervening interface's own
// extends/implements chain.
func (e *Engine) SubtypesImplementing(interfaceName string) []*graph.ClassRecord {
	rec, ok := e.g.Lookup(interfaceName)
	if !ok {
		return nil
	}
	reachable, _ := ReachableAndDirect(rec, graph.ClassesImplementing)
	return e.BlacklistFilter(reachable)
}
