package graph

// RelationKind names one of the twelve directed edge kinds recorded on a
// ClassRecord, six dual (forward, reverse) pairs.
type RelationKind int

const (
	Superclasses RelationKind = iota
	Subclasses

	ContainsInnerClass
	ContainedWithinOuterClass

	ImplementedInterfaces
	ClassesImplementing

	ClassAnnotations
	ClassesWithClassAnnotation

	MethodAnnotations
	ClassesWithMethodAnnotation

	FieldAnnotations
	ClassesWithFieldAnnotation
)

func (k RelationKind) String() string {
	switch k {
	case Superclasses:
		return "Superclasses"
	case Subclasses:
		return "Subclasses"
	case ContainsInnerClass:
		return "ContainsInnerClass"
	case ContainedWithinOuterClass:
		return "ContainedWithinOuterClass"
	case ImplementedInterfaces:
		return "ImplementedInterfaces"
	case ClassesImplementing:
		return "ClassesImplementing"
	case ClassAnnotations:
		return "ClassAnnotations"
	case ClassesWithClassAnnotation:
		return "ClassesWithClassAnnotation"
	case MethodAnnotations:
		return "MethodAnnotations"
	case ClassesWithMethodAnnotation:
		return "ClassesWithMethodAnnotation"
	case FieldAnnotations:
		return "FieldAnnotations"
	case ClassesWithFieldAnnotation:
		return "ClassesWithFieldAnnotation"
	default:
		return "Unknown"
	}
}

// reverseOf maps each forward relation to its mirrored reverse and back,
// so the cross-linker only ever needs one table to populate both
// directions of an edge: B in A.Superclasses iff A in B.Subclasses, and
// likewise for the other five pairs.
var reverseOf = map[RelationKind]RelationKind{
	Superclasses:                Subclasses,
	Subclasses:                  Superclasses,
	ContainsInnerClass:          ContainedWithinOuterClass,
	ContainedWithinOuterClass:   ContainsInnerClass,
	ImplementedInterfaces:       ClassesImplementing,
	ClassesImplementing:         ImplementedInterfaces,
	ClassAnnotations:            ClassesWithClassAnnotation,
	ClassesWithClassAnnotation:  ClassAnnotations,
	MethodAnnotations:           ClassesWithMethodAnnotation,
	ClassesWithMethodAnnotation: MethodAnnotations,
	FieldAnnotations:            ClassesWithFieldAnnotation,
	ClassesWithFieldAnnotation:  FieldAnnotations,
}

// Reverse returns k's mirrored relation kind.
func (k RelationKind) Reverse() RelationKind { return reverseOf[k] }
