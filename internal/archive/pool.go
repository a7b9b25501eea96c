// Package archive opens zip/jar archives, pools their readers, parses their
// manifests, and extracts nested archives to temp storage so the parser can
// recurse into them as if they were ordinary classpath roots.
//
// Grounded on the resource-lifecycle shape in internal/storage
// (open/close/exists over a backing store) and the per-path-locked,
// reference-counted handle pattern used by internal/parser/hprof's mmap
// store, generalized here from one memory-mapped heap file to many
// concurrently-open zip readers.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/classgraph/pkg/errors"
)

// Pool owns a bounded set of open archive readers and the temp files
// produced by extracting nested archives. Safe for concurrent use by the
// work-queue's worker pool.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry // canonical path -> entry
	softCap int

	tempDir   string
	tempOnce  sync.Once
	tempErr   error

	extractMu sync.Mutex
	extracted map[string]string // "outer\x00inner" -> temp file path
	outermost map[string]string // temp file path -> outermost archive path

	closed int32
}

type poolEntry struct {
	mu       sync.Mutex // serializes opening this one path
	path     string
	file     *os.File
	zr       *zip.Reader
	refCount int

	manifestOnce sync.Once
	manifest     *Manifest
	manifestErr  error
}

// NewPool builds a Pool. softCap bounds how many archive readers stay open
// for reuse after their last Release; a softCap of 0 means "no reuse",
// closing every reader immediately on release.
func NewPool(softCap int) *Pool {
	return &Pool{
		entries:   make(map[string]*poolEntry),
		softCap:   softCap,
		extracted: make(map[string]string),
		outermost: make(map[string]string),
	}
}

// Handle is a leased reference to one archive, scoped to an optional
// package-root prefix. It implements internal/classpath's ArchiveHandle
// interface.
type Handle struct {
	pool              *Pool
	entry             *poolEntry
	packageRootPrefix string
	refs              int32
}

// CanonicalPath returns the archive's on-disk path.
func (h *Handle) CanonicalPath() string { return h.entry.path }

// PackageRootPrefix returns the subtree this handle is scoped to.
func (h *Handle) PackageRootPrefix() string { return h.packageRootPrefix }

// Manifest returns the archive's parsed manifest, reading it on first call
// and memoizing the result for the entry's lifetime.
func (h *Handle) Manifest() (*Manifest, error) {
	h.entry.manifestOnce.Do(func() {
		h.entry.manifest, h.entry.manifestErr = readManifest(h.entry.zr)
	})
	return h.entry.manifest, h.entry.manifestErr
}

// ManifestClassPath returns the union of Class-Path and Bundle-ClassPath
// manifest entries, satisfying internal/classpath.ArchiveHandle.
func (h *Handle) ManifestClassPath() ([]string, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}
	all := make([]string, 0, len(m.ClassPath)+len(m.BundleClassPath))
	all = append(all, m.ClassPath...)
	all = append(all, m.BundleClassPath...)
	return all, nil
}

// Zip returns the underlying zip reader for entry enumeration.
func (h *Handle) Zip() *zip.Reader { return h.entry.zr }

// Open leases a Handle for the archive at canonical path, opening it if not
// already pooled. At most one goroutine opens a given path at a time; later
// callers block on that path's lock and then share the result.
func (p *Pool) Open(path, packageRootPrefix string) (*Handle, error) {
	if atomic.LoadInt32(&p.closed) != 0 {
		return nil, errors.New(errors.CodeResolutionError, "archive pool is closed")
	}

	p.mu.Lock()
	entry, ok := p.entries[path]
	if !ok {
		entry = &poolEntry{path: path}
		p.entries[path] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.zr == nil {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolutionError, "open archive "+path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errors.Wrap(errors.CodeResolutionError, "stat archive "+path, err)
		}
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			f.Close()
			return nil, errors.Wrap(errors.CodeResolutionError, "read archive "+path, err)
		}
		entry.file = f
		entry.zr = zr
	}

	entry.refCount++
	return &Handle{pool: p, entry: entry, packageRootPrefix: packageRootPrefix}, nil
}

// Release returns a Handle to the pool. When the archive's reference count
// drops to zero and the pool already holds more open entries than softCap,
// the reader is closed immediately rather than retained.
func (p *Pool) Release(h *Handle) {
	entry := h.entry
	entry.mu.Lock()
	entry.refCount--
	shouldClose := entry.refCount <= 0
	entry.mu.Unlock()

	if !shouldClose {
		return
	}

	p.mu.Lock()
	over := len(p.entries) > p.softCap
	p.mu.Unlock()

	if over {
		p.closeEntry(entry)
	}
}

func (p *Pool) closeEntry(entry *poolEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.file != nil {
		entry.file.Close()
		entry.file = nil
		entry.zr = nil
	}
	p.mu.Lock()
	delete(p.entries, entry.path)
	p.mu.Unlock()
}

// GetOutermost returns the canonical on-disk path of the outermost archive
// that ultimately produced path, following the extract-inner chain. If path
// was never produced by ExtractInner, it is already outermost and is
// returned unchanged.
func (p *Pool) GetOutermost(path string) string {
	p.extractMu.Lock()
	defer p.extractMu.Unlock()
	for {
		outer, ok := p.outermost[path]
		if !ok {
			return path
		}
		path = outer
	}
}

// ExtractInner writes the zip entry at innerPath inside the archive at
// outerPath to a uniquely-named temp file and returns its path. Idempotent
// and cached per (outerPath, innerPath): repeated calls return the same temp
// file without re-extracting.
func (p *Pool) ExtractInner(outerPath, innerPath string) (string, error) {
	key := outerPath + "\x00" + innerPath

	p.extractMu.Lock()
	if existing, ok := p.extracted[key]; ok {
		p.extractMu.Unlock()
		return existing, nil
	}
	p.extractMu.Unlock()

	dir, err := p.tempDirPath()
	if err != nil {
		return "", err
	}

	handle, err := p.Open(outerPath, "")
	if err != nil {
		return "", err
	}
	defer p.Release(handle)

	var zf *zip.File
	for _, f := range handle.Zip().File {
		if f.Name == innerPath {
			zf = f
			break
		}
	}
	if zf == nil {
		return "", errors.New(errors.CodeResolutionError, fmt.Sprintf("inner archive not found: %s!/%s", outerPath, innerPath))
	}

	rc, err := zf.Open()
	if err != nil {
		return "", errors.Wrap(errors.CodeResolutionError, "open inner archive entry", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, "nested-*.jar")
	if err != nil {
		return "", errors.Wrap(errors.CodeResolutionError, "create temp file for inner archive", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, rc); err != nil {
		return "", errors.Wrap(errors.CodeResolutionError, "write inner archive to temp file", err)
	}

	outermost := p.GetOutermost(outerPath)
	p.extractMu.Lock()
	p.extracted[key] = tmp.Name()
	p.outermost[tmp.Name()] = outermost
	p.extractMu.Unlock()

	return tmp.Name(), nil
}

func (p *Pool) tempDirPath() (string, error) {
	p.tempOnce.Do(func() {
		p.tempDir, p.tempErr = os.MkdirTemp("", "classgraph-archive-*")
	})
	return p.tempDir, p.tempErr
}

// Close releases every pooled reader and deletes every temp file. Idempotent.
func (p *Pool) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}

	p.mu.Lock()
	entries := make([]*poolEntry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.file != nil {
			e.file.Close()
		}
		e.mu.Unlock()
	}

	if p.tempDir != "" {
		return os.RemoveAll(p.tempDir)
	}
	return nil
}

// JoinNestedPath builds the display form of a nested archive path, e.g.
// "a.jar!/inner/b.jar".
func JoinNestedPath(outer, inner string) string {
	return filepath.ToSlash(outer) + "!/" + filepath.ToSlash(inner)
}
