package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/diagnostics"
	"github.com/classgraph/internal/graph"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/internal/workqueue"
	"github.com/classgraph/pkg/errors"
)

// --- minimal classfile fixture builder, mirroring internal/classfile's own
// test helper but kept local since the tag/attribute constants it needs are
// unexported in that package. ---

const (
	fixtureAccPublic     = 0x0001
	fixtureAccSuper      = 0x0020
	fixtureAccInterface  = 0x0200
	fixtureAccAbstract   = 0x0400
	fixtureAccAnnotation = 0x2000
)

type cpBuilder struct {
	buf  bytes.Buffer
	next uint16
}

func newCPBuilder() *cpBuilder { return &cpBuilder{next: 1} }

func (b *cpBuilder) utf8(s string) uint16 {
	idx := b.next
	b.buf.WriteByte(1) // CONSTANT_Utf8
	binary.Write(&b.buf, binary.BigEndian, uint16(len(s)))
	b.buf.WriteString(s)
	b.next++
	return idx
}

func (b *cpBuilder) classRef(nameIdx uint16) uint16 {
	idx := b.next
	b.buf.WriteByte(7) // CONSTANT_Class
	binary.Write(&b.buf, binary.BigEndian, nameIdx)
	b.next++
	return idx
}

func (b *cpBuilder) count() uint16 { return b.next }

func toInternal(dotted string) string { return strings.ReplaceAll(dotted, ".", "/") }

// classSpec describes one fixture classfile at the level this package's
// tests care about: identity, inheritance, and marker (no-parameter)
// annotations.
type classSpec struct {
	name        string
	super       string
	interfaces  []string
	accessFlags uint16
	annotations []string
}

func buildClassBytes(t *testing.T, spec classSpec) []byte {
	t.Helper()

	cp := newCPBuilder()
	thisClassIdx := cp.classRef(cp.utf8(toInternal(spec.name)))

	var superClassIdx uint16
	if spec.super != "" {
		superClassIdx = cp.classRef(cp.utf8(toInternal(spec.super)))
	}

	ifaceIdxs := make([]uint16, 0, len(spec.interfaces))
	for _, iface := range spec.interfaces {
		ifaceIdxs = append(ifaceIdxs, cp.classRef(cp.utf8(toInternal(iface))))
	}

	var attrBody bytes.Buffer
	var attrCount uint16
	if len(spec.annotations) > 0 {
		attrNameIdx := cp.utf8("RuntimeVisibleAnnotations")
		descIdxs := make([]uint16, 0, len(spec.annotations))
		for _, ann := range spec.annotations {
			descIdxs = append(descIdxs, cp.utf8("L"+toInternal(ann)+";"))
		}

		var body bytes.Buffer
		binary.Write(&body, binary.BigEndian, uint16(len(descIdxs)))
		for _, descIdx := range descIdxs {
			binary.Write(&body, binary.BigEndian, descIdx)   // type_index
			binary.Write(&body, binary.BigEndian, uint16(0)) // num_element_value_pairs
		}

		binary.Write(&attrBody, binary.BigEndian, attrNameIdx)
		binary.Write(&attrBody, binary.BigEndian, uint32(body.Len()))
		attrBody.Write(body.Bytes())
		attrCount = 1
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))

	binary.Write(&out, binary.BigEndian, cp.count())
	out.Write(cp.buf.Bytes())

	binary.Write(&out, binary.BigEndian, spec.accessFlags)
	binary.Write(&out, binary.BigEndian, thisClassIdx)
	binary.Write(&out, binary.BigEndian, superClassIdx)

	binary.Write(&out, binary.BigEndian, uint16(len(ifaceIdxs)))
	for _, idx := range ifaceIdxs {
		binary.Write(&out, binary.BigEndian, idx)
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // methods_count

	binary.Write(&out, binary.BigEndian, attrCount)
	out.Write(attrBody.Bytes())

	return out.Bytes()
}

func classFilePath(dir, dotted string) string {
	return filepath.Join(dir, filepath.FromSlash(toInternal(dotted))+".class")
}

func writeClassFile(t *testing.T, dir string, spec classSpec) {
	t.Helper()
	path := classFilePath(dir, spec.name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, buildClassBytes(t, spec), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func newTestScanner(t *testing.T, spec *scanspec.ScanSpec) (*Scanner, *archive.Pool) {
	t.Helper()
	pool := archive.NewPool(4)
	t.Cleanup(func() { pool.Close() })

	resolver := classpath.NewResolver(classpath.NewRegistry(), func(path, prefix string) (classpath.ArchiveHandle, error) {
		return pool.Open(path, prefix)
	}, nil)

	return NewScanner(spec, resolver, pool), pool
}

// A directory root with a class extending another class, implementing an
// interface, and carrying a class annotation, all three of which are never
// scanned themselves. Expect them recorded as external, with both
// directions of every relation populated.
func TestScanDirectoryEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, classSpec{
		name:        "com.acme.A",
		super:       "com.acme.B",
		interfaces:  []string{"com.acme.I"},
		accessFlags: fixtureAccPublic | fixtureAccSuper,
		annotations: []string{"com.acme.Dep"},
	})

	spec := scanspec.New(
		scanspec.WithWhitelistPackages("com.acme"),
		scanspec.WithClassInfo(true, true),
		scanspec.WithExternalClasses(true),
	)
	scanner, _ := newTestScanner(t, spec)

	result, err := scanner.Run(context.Background(), Request{Override: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	a, ok := result.Graph.Lookup("com.acme.A")
	if !ok {
		t.Fatal("com.acme.A missing from graph")
	}
	if a.IsExternal {
		t.Error("com.acme.A should not be external: it was directly scanned")
	}

	b, ok := result.Graph.Lookup("com.acme.B")
	if !ok || !b.IsExternal {
		t.Fatalf("com.acme.B = %+v, ok=%v, want external", b, ok)
	}

	supers := a.Related(graph.Superclasses)
	if len(supers) != 1 || supers[0].Name != "com.acme.B" {
		t.Errorf("A.Superclasses = %+v, want [B]", supers)
	}
	subs := b.Related(graph.Subclasses)
	if len(subs) != 1 || subs[0].Name != "com.acme.A" {
		t.Errorf("B.Subclasses = %+v, want [A]", subs)
	}

	dep, ok := result.Graph.Lookup("com.acme.Dep")
	if !ok || !dep.IsExternal {
		t.Fatalf("com.acme.Dep = %+v, ok=%v, want external", dep, ok)
	}

	withDep := result.Engine.ClassesWithAnnotation("com.acme.Dep")
	if len(withDep) != 1 || withDep[0].Name != "com.acme.A" {
		t.Errorf("ClassesWithAnnotation(Dep) = %+v, want [A]", withDep)
	}
}

func TestScanEmptyRequestIsConfigError(t *testing.T) {
	spec := scanspec.New()
	scanner, _ := newTestScanner(t, spec)

	_, err := scanner.Run(context.Background(), Request{})
	if errors.GetErrorCode(err) != errors.CodeConfigError {
		t.Fatalf("err = %v, want CodeConfigError", err)
	}
}

func TestScanCancelledContextIsInterrupted(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, classSpec{name: "com.acme.A", accessFlags: fixtureAccPublic | fixtureAccSuper})

	spec := scanspec.New(scanspec.WithWhitelistPackages("com.acme"))
	scanner, _ := newTestScanner(t, spec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanner.Run(ctx, Request{Override: dir})
	if errors.GetErrorCode(err) != errors.CodeInterrupted {
		t.Fatalf("err = %v, want CodeInterrupted", err)
	}
}

// A bootable archive scoped to a package-root prefix reports paths relative
// to that prefix and resolves class names straight off the classfile bytes,
// independent of the prefix.
func TestScanArchivePackageRootPrefix(t *testing.T) {
	spec := scanspec.New(scanspec.WithWhitelistPackages("p"))
	scanner, pool := newTestScanner(t, spec)
	scanner.resourceMatch = func(relPath string) bool { return strings.HasSuffix(relPath, ".properties") }

	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")
	writeZip(t, jarPath, map[string][]byte{
		"BOOT-INF/classes/p/C.class":        buildClassBytes(t, classSpec{name: "p.C", accessFlags: fixtureAccPublic | fixtureAccSuper}),
		"BOOT-INF/classes/p/app.properties": []byte("k=v\n"),
		"BOOT-INF/lib/other.jar":            []byte("not read: outside the package root"),
	})

	log := diagnostics.New("test", diagnostics.LevelInfo)
	var result unitResult
	scanner.scanArchivePath(jarPath, "BOOT-INF/classes", workqueue.NewInterrupter(), log, &result)

	if len(result.records) != 1 || result.records[0].ClassName != "p.C" {
		t.Fatalf("records = %+v, want one record named p.C", result.records)
	}

	if len(result.resources) != 1 {
		t.Fatalf("resources = %+v, want one matched resource", result.resources)
	}
	if result.resources[0].PathRelativeToPackageRoot != "p/app.properties" {
		t.Errorf("PathRelativeToPackageRoot = %q, want p/app.properties", result.resources[0].PathRelativeToPackageRoot)
	}

	_ = pool
}

// A nested archive referenced only by its outer archive's own zip entries
// (not via a manifest Class-Path) is still walked recursively.
func TestScanArchiveRecursesIntoNestedArchive(t *testing.T) {
	spec := scanspec.New(scanspec.WithWhitelistPackages("q"))
	scanner, _ := newTestScanner(t, spec)

	innerDir := t.TempDir()
	innerJar := filepath.Join(innerDir, "inner.jar")
	writeZip(t, innerJar, map[string][]byte{
		"q/Nested.class": buildClassBytes(t, classSpec{name: "q.Nested", accessFlags: fixtureAccPublic | fixtureAccSuper}),
	})
	innerBytes, err := os.ReadFile(innerJar)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	outerDir := t.TempDir()
	outerJar := filepath.Join(outerDir, "outer.jar")
	writeZip(t, outerJar, map[string][]byte{
		"lib/inner.jar": innerBytes,
	})

	log := diagnostics.New("test", diagnostics.LevelInfo)
	var result unitResult
	scanner.scanArchivePath(outerJar, "", workqueue.NewInterrupter(), log, &result)

	if len(result.records) != 1 || result.records[0].ClassName != "q.Nested" {
		t.Fatalf("records = %+v, want one record named q.Nested", result.records)
	}
}

func TestScanArchiveDisablesRecursionWhenConfigured(t *testing.T) {
	spec := scanspec.New(scanspec.WithWhitelistPackages("q"), scanspec.WithRecursiveScanning(false))
	scanner, _ := newTestScanner(t, spec)

	innerDir := t.TempDir()
	innerJar := filepath.Join(innerDir, "inner.jar")
	writeZip(t, innerJar, map[string][]byte{
		"q/Nested.class": buildClassBytes(t, classSpec{name: "q.Nested", accessFlags: fixtureAccPublic | fixtureAccSuper}),
	})
	innerBytes, err := os.ReadFile(innerJar)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	outerDir := t.TempDir()
	outerJar := filepath.Join(outerDir, "outer.jar")
	writeZip(t, outerJar, map[string][]byte{
		"lib/inner.jar": innerBytes,
	})

	log := diagnostics.New("test", diagnostics.LevelInfo)
	var result unitResult
	scanner.scanArchivePath(outerJar, "", workqueue.NewInterrupter(), log, &result)

	if len(result.records) != 0 {
		t.Fatalf("records = %+v, want none: recursive scanning is disabled", result.records)
	}
}

func TestIsSystemJar(t *testing.T) {
	cases := map[string]bool{
		"/usr/lib/jvm/java-8/jre/lib/rt.jar": true,
		"/home/me/libs/app.jar":              false,
		"/opt/java/jrt-fs.jar":                true,
	}
	for path, want := range cases {
		if got := isSystemJar(path); got != want {
			t.Errorf("isSystemJar(%q) = %v, want %v", path, got, want)
		}
	}
}

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create(%s): %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write(%s): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
}
