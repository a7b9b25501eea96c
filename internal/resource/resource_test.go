package resource

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/classgraph/internal/archive"
)

func TestDirectorySourceReadAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.properties")
	if err := os.WriteFile(path, []byte("key=value\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := NewDirectorySource(dir, "config.properties", path)
	data, err := src.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "key=value\n" {
		t.Errorf("data = %q", data)
	}
	if src.Leaf() != "config.properties" {
		t.Errorf("Leaf() = %q", src.Leaf())
	}
	if src.Extension() != "properties" {
		t.Errorf("Extension() = %q", src.Extension())
	}
}

func TestArchiveSourceReadReleasesHandle(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")

	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("config/app.properties")
	if err != nil {
		t.Fatalf("zip Create: %v", err)
	}
	if _, err := w.Write([]byte("greeting=hello\n")); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("f.Close: %v", err)
	}

	pool := archive.NewPool(4)
	defer pool.Close()

	src := NewArchiveSource(pool, jarPath, "", "config/app.properties", "config/app.properties")
	data, err := src.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, []byte("greeting=hello\n")) {
		t.Errorf("data = %q", data)
	}
	if src.ClasspathElementPath() != jarPath {
		t.Errorf("ClasspathElementPath() = %q", src.ClasspathElementPath())
	}
}

func TestArchiveSourceMissingEntry(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")
	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("f.Close: %v", err)
	}

	pool := archive.NewPool(4)
	defer pool.Close()

	src := NewArchiveSource(pool, jarPath, "", "missing.txt", "missing.txt")
	if _, err := src.Read(); err == nil {
		t.Fatal("expected an error for a missing archive entry")
	}
}
