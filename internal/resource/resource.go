// Package resource exposes non-classfile classpath entries (config files,
// templates, anything a caller-supplied filter matches) as lazily-opened
// byte sources.
//
// Grounded on internal/storage.Storage: the same
// open/read/close resource-lifecycle shape (Upload/Download/Exists there
// becomes open()/read()/close() here), adapted from an object-storage
// abstraction to archive-relative reads borrowed from internal/archive's
// reader pool.
package resource

import (
	"io"
	"os"
	"path/filepath"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/pkg/errors"
)

// Source is a single matched resource: a lazily-opened byte stream over
// either a plain file on a directory classpath root or an entry inside an
// archive. PathRelativeToPackageRoot strips the archive's package-root
// prefix (spring-boot-style nested-classes layout); PathRelativeToClasspathElement
// never does.
type Source struct {
	PathRelativeToPackageRoot       string
	PathRelativeToClasspathElement string

	// classpathElementPath is the canonical path of the owning classpath
	// root (a directory, or an archive's on-disk path).
	classpathElementPath string

	// For directory roots, absolutePath is set and pool is nil.
	absolutePath string

	// For archive roots, pool/archivePath/packageRoot/entryName are set
	// instead.
	pool        *archive.Pool
	archivePath string
	packageRoot string
	entryName   string

	opened io.ReadCloser
}

// NewDirectorySource builds a Source over a plain file on disk.
func NewDirectorySource(classpathElementPath, relPath, absPath string) *Source {
	return &Source{
		PathRelativeToPackageRoot:      relPath,
		PathRelativeToClasspathElement: relPath,
		classpathElementPath:           classpathElementPath,
		absolutePath:                   absPath,
	}
}

// NewArchiveSource builds a Source over one zip entry of an archive.
// entryName is the entry's full path inside the archive (before
// package-root stripping); relToPackageRoot has packageRoot already
// stripped.
func NewArchiveSource(pool *archive.Pool, archivePath, packageRoot, entryName, relToPackageRoot string) *Source {
	return &Source{
		PathRelativeToPackageRoot:      relToPackageRoot,
		PathRelativeToClasspathElement: entryName,
		classpathElementPath:           archivePath,
		pool:                           pool,
		archivePath:                    archivePath,
		packageRoot:                    packageRoot,
		entryName:                      entryName,
	}
}

// ClasspathElementPath returns the canonical path of the classpath root
// this resource was found under.
func (s *Source) ClasspathElementPath() string { return s.classpathElementPath }

// Open returns a stream over the resource's bytes. The caller must Close
// it (or call Source.Close) when done; archive-backed sources hold a
// borrowed pool handle until then.
func (s *Source) Open() (io.ReadCloser, error) {
	if s.opened != nil {
		return s.opened, nil
	}

	if s.absolutePath != "" {
		f, err := os.Open(s.absolutePath)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolutionError, "open resource "+s.absolutePath, err)
		}
		s.opened = f
		return f, nil
	}

	handle, err := s.pool.Open(s.archivePath, s.packageRoot)
	if err != nil {
		return nil, err
	}

	var entryReader io.ReadCloser
	for _, f := range handle.Zip().File {
		if f.Name != s.entryName {
			continue
		}
		entryReader, err = f.Open()
		break
	}
	if entryReader == nil {
		s.pool.Release(handle)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolutionError, "open archive entry "+s.entryName, err)
		}
		return nil, errors.New(errors.CodeResolutionError, "resource entry not found: "+s.entryName)
	}

	s.opened = &releasingReadCloser{ReadCloser: entryReader, pool: s.pool, handle: handle}
	return s.opened, nil
}

// Read opens (if needed) and fully reads the resource, closing it
// afterward. Convenience for small resources read in one shot.
func (s *Source) Read() ([]byte, error) {
	rc, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(errors.CodeResolutionError, "read resource "+s.PathRelativeToClasspathElement, err)
	}
	return data, nil
}

// Close releases the underlying stream and, for archive-backed sources,
// the borrowed pool handle. Safe to call more than once.
func (s *Source) Close() error {
	if s.opened == nil {
		return nil
	}
	err := s.opened.Close()
	s.opened = nil
	return err
}

// Leaf returns the resource's base file name.
func (s *Source) Leaf() string {
	return filepath.Base(s.PathRelativeToClasspathElement)
}

// Extension returns the resource's file extension, without the leading
// dot, or "" if it has none.
func (s *Source) Extension() string {
	ext := filepath.Ext(s.PathRelativeToClasspathElement)
	if ext == "" {
		return ""
	}
	return ext[1:]
}

// releasingReadCloser wraps a zip entry's reader so Close also releases
// the borrowed archive pool handle, keeping the pool's reference count
// accurate for resources opened independently of a scan's worker.
type releasingReadCloser struct {
	io.ReadCloser
	pool   *archive.Pool
	handle *archive.Handle
}

func (r *releasingReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.pool.Release(r.handle)
	return err
}
