// Package classpath resolves an ordered list of unique classpath roots from
// either an explicit override or a tree of classloader-like providers.
package classpath

// Kind tags the variant carried by a Root.
type Kind int

const (
	// Directory is a plain on-disk directory root.
	Directory Kind = iota
	// Archive is a jar/zip root, optionally scoped to a package-root prefix
	// (e.g. Spring Boot's "BOOT-INF/classes").
	Archive
	// Module is a platform module reference rather than a filesystem path.
	Module
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case Archive:
		return "archive"
	case Module:
		return "module"
	default:
		return "unknown"
	}
}

// ArchiveHandle is the subset of a pooled archive resource a Root needs:
// enough to read its manifest for Class-Path chasing without the classpath
// package importing the archive package outright.
type ArchiveHandle interface {
	// CanonicalPath is the archive's canonicalized on-disk path.
	CanonicalPath() string
	// ManifestClassPath returns the manifest's Class-Path (and
	// Bundle-ClassPath) entries as written in the manifest; the resolver
	// resolves them relative to the archive's parent directory. Returns an
	// empty result and no error when the archive carries no manifest or no
	// such header.
	ManifestClassPath() ([]string, error)
}

// Root is one resolved, canonicalized classpath entry.
type Root struct {
	Kind Kind

	// Path is the canonical directory or archive path. Empty for Module.
	Path string

	// PackageRootPrefix scopes an Archive root to a subtree, e.g.
	// "BOOT-INF/classes". Empty means the archive root is the jar root.
	PackageRootPrefix string

	// ModuleRef identifies a Module root. Empty for Directory/Archive.
	ModuleRef string

	// Archive is the backing pooled handle for an Archive root. Nil for
	// Directory/Module roots.
	Archive ArchiveHandle

	// Providers lists, in first-seen order, the names of the classloader
	// providers that contributed this root. Relevant for later class
	// loading and for collision logging in the cross-linker.
	Providers []string
}

// Key returns the value used to dedup and order roots: the canonical path
// plus package-root prefix (two archive roots over the same jar but
// different prefixes are distinct roots).
func (r Root) Key() string {
	switch r.Kind {
	case Module:
		return "module:" + r.ModuleRef
	case Archive:
		return "archive:" + r.Path + "#" + r.PackageRootPrefix
	default:
		return "dir:" + r.Path
	}
}
