// Package scanspec holds the resolved, read-only scan option bundle consumed
// by every other core component: the classpath resolver, the classfile
// parser's pre-parse name filter, and the query layer's blacklist filter.
package scanspec

// ScanSpec is the resolved bundle of scan options. It is built once by the
// spec builder (pkg/config) and never mutated again; every component that
// receives one treats it as a read-only value.
type ScanSpec struct {
	// WhitelistPackages / BlacklistPackages gate classes by fully qualified
	// package prefix. An empty whitelist means "no package restriction".
	WhitelistPackages []string
	BlacklistPackages []string

	// WhitelistJars / BlacklistJars gate classpath elements by jar leaf name.
	WhitelistJars []string
	BlacklistJars []string

	// IndexFields / IndexMethods enable field and method record population
	// during parsing. When false the parser skips the member tables entirely.
	IndexFields bool
	IndexMethods bool

	// IndexMethodAnnotations / IndexFieldAnnotations enable annotation-record
	// decoding on members. IndexMethodAnnotations on its own makes the parser
	// read the method table and keep the methods that carry an annotation;
	// IndexFieldAnnotations has no effect unless IndexFields is also set.
	IndexMethodAnnotations bool
	IndexFieldAnnotations  bool

	// IgnoreFieldVisibility / IgnoreMethodVisibility, when true, disable the
	// default public/protected-only visibility gate uniformly across every
	// visibility check for that member kind: indexing, static-final constant
	// resolution, and member enumeration all honor the same flag.
	IgnoreFieldVisibility  bool
	IgnoreMethodVisibility bool

	// EnableAnnotationInfo / EnableClassInfo toggle whether annotation
	// records and full class-level metadata (signature, inner-class pairs,
	// enclosing-method) are retained past the unlinked record.
	EnableAnnotationInfo bool
	EnableClassInfo      bool

	// EnableExternalClasses, when true, keeps a stub ClassRecord for classes
	// referenced but never directly scanned (is-external = true) instead of
	// dropping the reference.
	EnableExternalClasses bool

	// StrictWhitelist, when true, makes WhitelistPackages exclusive: any
	// class outside the whitelist is dropped rather than merely external.
	StrictWhitelist bool

	// DisableRecursiveScanning stops the scanner from following nested
	// archives found inside already-scanned archives.
	DisableRecursiveScanning bool

	// BlacklistSystemJars drops classpath elements recognized as platform
	// runtime jars (e.g. the bootstrap/extension classloader's own jars)
	// after resolution, before any of their entries are scanned.
	BlacklistSystemJars bool
}

// Option configures a ScanSpec being built with New.
type Option func(*ScanSpec)

// New builds a ScanSpec from zero or more options. Unset boolean flags
// default to false; unset slices default to nil (no restriction).
func New(opts ...Option) *ScanSpec {
	s := &ScanSpec{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithWhitelistPackages sets the package whitelist.
func WithWhitelistPackages(pkgs ...string) Option {
	return func(s *ScanSpec) { s.WhitelistPackages = append(s.WhitelistPackages, pkgs...) }
}

// WithBlacklistPackages sets the package blacklist.
func WithBlacklistPackages(pkgs ...string) Option {
	return func(s *ScanSpec) { s.BlacklistPackages = append(s.BlacklistPackages, pkgs...) }
}

// WithWhitelistJars sets the jar-name whitelist.
func WithWhitelistJars(jars ...string) Option {
	return func(s *ScanSpec) { s.WhitelistJars = append(s.WhitelistJars, jars...) }
}

// WithBlacklistJars sets the jar-name blacklist.
func WithBlacklistJars(jars ...string) Option {
	return func(s *ScanSpec) { s.BlacklistJars = append(s.BlacklistJars, jars...) }
}

// WithIndexing turns on field/method indexing and, optionally, their
// annotation decoding.
func WithIndexing(fields, methods, fieldAnnotations, methodAnnotations bool) Option {
	return func(s *ScanSpec) {
		s.IndexFields = fields
		s.IndexMethods = methods
		s.IndexFieldAnnotations = fieldAnnotations
		s.IndexMethodAnnotations = methodAnnotations
	}
}

// WithVisibility sets the two ignore-visibility flags.
func WithVisibility(ignoreFields, ignoreMethods bool) Option {
	return func(s *ScanSpec) {
		s.IgnoreFieldVisibility = ignoreFields
		s.IgnoreMethodVisibility = ignoreMethods
	}
}

// WithClassInfo sets the annotation-info and class-info retention flags.
func WithClassInfo(annotationInfo, classInfo bool) Option {
	return func(s *ScanSpec) {
		s.EnableAnnotationInfo = annotationInfo
		s.EnableClassInfo = classInfo
	}
}

// WithExternalClasses sets EnableExternalClasses.
func WithExternalClasses(enable bool) Option {
	return func(s *ScanSpec) { s.EnableExternalClasses = enable }
}

// WithStrictWhitelist sets StrictWhitelist.
func WithStrictWhitelist(strict bool) Option {
	return func(s *ScanSpec) { s.StrictWhitelist = strict }
}

// WithRecursiveScanning controls DisableRecursiveScanning (inverted for a
// positive-sense call site: WithRecursiveScanning(false) disables it).
func WithRecursiveScanning(enable bool) Option {
	return func(s *ScanSpec) { s.DisableRecursiveScanning = !enable }
}

// WithBlacklistSystemJars sets BlacklistSystemJars.
func WithBlacklistSystemJars(enable bool) Option {
	return func(s *ScanSpec) { s.BlacklistSystemJars = enable }
}
