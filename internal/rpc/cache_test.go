package rpc

import (
	"testing"

	"github.com/classgraph/internal/classfile"
	"github.com/classgraph/internal/graph"
	"github.com/classgraph/internal/query"
	"github.com/classgraph/internal/scanspec"
)

func buildEngine(t *testing.T, className string) *query.Engine {
	t.Helper()
	spec := scanspec.New(scanspec.WithExternalClasses(true))
	cl := graph.NewCrossLinker(spec)
	rec := &classfile.UnlinkedClassRecord{ClassName: className}
	if err := cl.Merge(rec); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return query.NewEngine(cl.Freeze(), spec)
}

func TestCacheGetPut(t *testing.T) {
	c := NewCache(4)

	if _, ok := c.Get("job-1"); ok {
		t.Fatalf("expected empty cache to miss")
	}

	e := buildEngine(t, "com/example/Foo")
	c.Put("job-1", e)

	got, ok := c.Get("job-1")
	if !ok || got != e {
		t.Fatalf("Get(job-1) = %v, %v, want %v, true", got, ok, e)
	}
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	c := NewCache(2)

	c.Put("job-1", buildEngine(t, "com/example/A"))
	c.Put("job-2", buildEngine(t, "com/example/B"))
	c.Put("job-3", buildEngine(t, "com/example/C"))

	if _, ok := c.Get("job-1"); ok {
		t.Fatalf("job-1 should have been evicted")
	}
	if _, ok := c.Get("job-2"); !ok {
		t.Fatalf("job-2 should still be cached")
	}
	if _, ok := c.Get("job-3"); !ok {
		t.Fatalf("job-3 should still be cached")
	}
}

func TestCacheZeroMaxEntriesDefaults(t *testing.T) {
	c := NewCache(0)
	if c.maxEntries <= 0 {
		t.Fatalf("maxEntries = %d, want a positive default", c.maxEntries)
	}
}

func TestCachePutOverwritesWithoutEviction(t *testing.T) {
	c := NewCache(2)

	c.Put("job-1", buildEngine(t, "com/example/A"))
	c.Put("job-2", buildEngine(t, "com/example/B"))
	e := buildEngine(t, "com/example/A2")
	c.Put("job-1", e)

	got, ok := c.Get("job-1")
	if !ok || got != e {
		t.Fatalf("Get(job-1) = %v, %v, want updated engine", got, ok)
	}
	if _, ok := c.Get("job-2"); !ok {
		t.Fatalf("job-2 should not have been evicted by an overwrite")
	}
}
