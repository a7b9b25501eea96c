package classfile

// Modifier bits, matching the JVM access_flags values used on classes,
// fields, and methods alike (only the bits this package inspects are
// named).
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccInterface = 0x0200
	AccAbstract  = 0x0400
	AccAnnotation = 0x2000
	AccEnum      = 0x4000
)

// InnerClassPair records one entry of the InnerClasses attribute: an inner
// class and the outer class it is contained within (outer may be empty for
// anonymous/local classes).
type InnerClassPair struct {
	InnerName string
	OuterName string
}

// ValueKind tags the variant carried by an AnnotationValue.
type ValueKind int

const (
	ValuePrimitive ValueKind = iota
	ValueString
	ValueClass
	ValueEnum
	ValueAnnotation
	ValueArray
)

// AnnotationValue is the tagged union produced by the element_value
// grammar.
type AnnotationValue struct {
	Kind ValueKind

	// Primitive holds byte/short/int/long/char/float/double/bool values,
	// stored using Go's natural representation for the constant pool tag
	// that produced them.
	Primitive interface{}

	// String holds a ValueString payload.
	String string

	// ClassDescriptor holds a ValueClass payload: the raw type descriptor,
	// parsed lazily by internal/signature on demand.
	ClassDescriptor string

	// EnumClassName/EnumConstantName hold a ValueEnum payload.
	EnumClassName    string
	EnumConstantName string

	// Annotation holds a ValueAnnotation payload.
	Annotation *AnnotationRecord

	// Array holds a ValueArray payload: element-wise decoded values.
	Array []AnnotationValue
}

// AnnotationParam is one (name, value) pair of an AnnotationRecord.
type AnnotationParam struct {
	Name  string
	Value AnnotationValue
}

// AnnotationRecord is a decoded annotation: the annotated type plus its
// parameter list, sorted by name for determinism.
type AnnotationRecord struct {
	ClassName string
	Params    []AnnotationParam
}

// FieldRecord is one indexed field. Populated only when index-fields is
// enabled and (absent ignore-field-visibility) the field is public.
type FieldRecord struct {
	Modifiers       uint16
	Name            string
	TypeDescriptor  string
	TypeSignature   string // raw Signature attribute string, if present
	ConstantValue   interface{} // set iff static final with a pool-expressible initializer
	Annotations     []AnnotationRecord
}

// ParameterInfo records one MethodParameters entry: a formal parameter's
// name and modifier bits (e.g. ACC_FINAL, ACC_SYNTHETIC).
type ParameterInfo struct {
	Name      string
	Modifiers uint16
}

// MethodRecord is one indexed method.
type MethodRecord struct {
	Modifiers          uint16
	Name               string
	TypeDescriptor     string
	TypeSignature      string
	Parameters         []ParameterInfo // from MethodParameters, if present
	Annotations        []AnnotationRecord
	ParameterAnnotations [][]AnnotationRecord // one list per formal parameter
	ExceptionTypes     []string             // from the Exceptions attribute
	AnnotationDefault  *AnnotationValue      // set iff this is an annotation-type element with a default
}

// ClasspathElementRef identifies the classpath element (directory or
// archive path, plus optional package-root prefix) a record was parsed
// from. Used by the cross-linker for first-seen-wins collision resolution.
type ClasspathElementRef struct {
	Path              string
	PackageRootPrefix string
}

// UnlinkedClassRecord is what Parse produces: everything read directly off
// one classfile, before cross-linking resolves superclass/interface names
// into graph edges.
type UnlinkedClassRecord struct {
	ClassName        string
	Modifiers        uint16
	IsInterface      bool
	IsAnnotation     bool
	SuperclassName   string // empty for java.lang.Object and for interfaces
	InterfaceNames   []string
	EnclosingMethod  string // for anonymous inner classes, "Outer.method" form; empty otherwise
	InnerClasses     []InnerClassPair
	Annotations      []AnnotationRecord
	Fields           []FieldRecord
	Methods          []MethodRecord
	TypeSignature    string // raw Signature attribute string, if present
	AnnotationDefaults []AnnotationParam // only set when the class is itself an annotation type
	Origin           ClasspathElementRef
}
