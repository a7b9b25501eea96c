package scan

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/classgraph/internal/classfile"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/diagnostics"
	"github.com/classgraph/internal/resource"
	"github.com/classgraph/internal/workqueue"
)

// unitResult is what one worker accumulates while draining a single
// workqueue.Unit: every unlinked record it parsed, every resource it
// matched, and every non-fatal failure along the way.
type unitResult struct {
	records   []*classfile.UnlinkedClassRecord
	resources []*resource.Source
	errors    []error
}

func (r *unitResult) addError(err error) {
	if err != nil {
		r.errors = append(r.errors, err)
	}
}

// errStopUnit signals cooperative cancellation out of a filepath.WalkDir
// callback or an archive entry loop; it never escapes processUnit.
var errStopUnit = errStopUnitType{}

type errStopUnitType struct{}

func (errStopUnitType) Error() string { return "scan interrupted" }

// processUnit returns the workqueue.ProcessFunc that drains one classpath
// root, dispatching on its kind. Per-file/per-entry failures are collected
// on the returned unitResult rather than aborting the unit.
func (s *Scanner) processUnit(log *diagnostics.Log) workqueue.ProcessFunc[unitResult] {
	return func(ctx context.Context, unit workqueue.Unit, interrupter *workqueue.Interrupter) (unitResult, error) {
		worker := log.Child(unit.Root.Path)
		var result unitResult

		switch unit.Root.Kind {
		case classpath.Directory:
			s.walkDirectory(unit, interrupter, worker, &result)
		case classpath.Archive:
			s.scanArchivePath(unit.Root.Path, unit.PackageRootPrefix, interrupter, worker, &result)
		default:
			worker.Debug("skipping module root %s: no byte source to scan", unit.Root.ModuleRef)
		}

		return result, nil
	}
}

// walkDirectory walks a directory root on disk, parsing every .class file
// and recording matched resources. Interruption is polled once per file.
func (s *Scanner) walkDirectory(unit workqueue.Unit, interrupter *workqueue.Interrupter, log *diagnostics.Log, result *unitResult) {
	root := unit.Root.Path

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if interrupter.IsSet() {
			return errStopUnit
		}
		if err != nil {
			result.addError(err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			result.addError(err)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if strings.HasSuffix(rel, ".class") {
			data, err := os.ReadFile(path)
			if err != nil {
				result.addError(err)
				return nil
			}
			origin := classfile.ClasspathElementRef{Path: root}
			rec, err := classfile.Parse(data, s.Spec, s.matcher, origin)
			if err != nil {
				log.Warn("skipping %s: %v", path, err)
				result.addError(err)
				return nil
			}
			if rec != nil {
				result.records = append(result.records, rec)
			}
			return nil
		}

		if s.resourceMatch != nil && s.resourceMatch(rel) {
			result.resources = append(result.resources, resource.NewDirectorySource(root, rel, path))
		}
		return nil
	})

	if walkErr != nil && walkErr != errStopUnit {
		result.addError(walkErr)
	}
}

// scanArchivePath opens the archive at archivePath (scoped to
// packageRootPrefix), parses its classfiles, records matched resources,
// and recurses into nested archives found inside it, unless recursive
// scanning is disabled. Accumulates into result in place so a recursive
// call and its caller share one unitResult.
func (s *Scanner) scanArchivePath(archivePath, packageRootPrefix string, interrupter *workqueue.Interrupter, log *diagnostics.Log, result *unitResult) {
	handle, err := s.ArchivePool.Open(archivePath, packageRootPrefix)
	if err != nil {
		result.addError(err)
		return
	}
	defer s.ArchivePool.Release(handle)

	prefix := packageRootPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	for _, f := range handle.Zip().File {
		if interrupter.IsSet() {
			return
		}
		if f.FileInfo().IsDir() {
			continue
		}

		entryName := f.Name
		rel := entryName
		if prefix != "" {
			if !strings.HasPrefix(entryName, prefix) {
				continue
			}
			rel = entryName[len(prefix):]
		}

		switch {
		case strings.HasSuffix(rel, ".class"):
			s.parseArchiveEntry(archivePath, packageRootPrefix, f, entryName, log, result)

		case !s.Spec.DisableRecursiveScanning && isNestedArchive(rel):
			nestedPath, err := s.ArchivePool.ExtractInner(archivePath, entryName)
			if err != nil {
				result.addError(err)
				continue
			}
			s.scanArchivePath(nestedPath, "", interrupter, log.Child(entryName), result)

		case s.resourceMatch != nil && s.resourceMatch(rel):
			result.resources = append(result.resources, resource.NewArchiveSource(s.ArchivePool, archivePath, packageRootPrefix, entryName, rel))
		}
	}
}

func (s *Scanner) parseArchiveEntry(archivePath, packageRootPrefix string, f *zip.File, entryName string, log *diagnostics.Log, result *unitResult) {
	rc, err := f.Open()
	if err != nil {
		result.addError(err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		result.addError(err)
		return
	}

	origin := classfile.ClasspathElementRef{Path: archivePath, PackageRootPrefix: packageRootPrefix}
	rec, err := classfile.Parse(data, s.Spec, s.matcher, origin)
	if err != nil {
		log.Warn("skipping %s!/%s: %v", archivePath, entryName, err)
		result.addError(err)
		return
	}
	if rec != nil {
		result.records = append(result.records, rec)
	}
}

func isNestedArchive(relPath string) bool {
	lower := strings.ToLower(relPath)
	return strings.HasSuffix(lower, ".jar") || strings.HasSuffix(lower, ".zip")
}
