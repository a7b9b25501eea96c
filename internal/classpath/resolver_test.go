package classpath

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveOverrideDedupsAndCanonicalizes(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "classes")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	registry.RegisterDefault()
	r := NewResolver(registry, nil, nil)

	override := sub + string(os.PathListSeparator) + sub
	roots, err := r.Resolve(override, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected duplicate override entries to dedup to one root, got %d", len(roots))
	}
	if roots[0].Kind != Directory {
		t.Fatalf("expected Directory root, got %v", roots[0].Kind)
	}
}

func TestResolveSkipsMissingRoot(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterDefault()
	r := NewResolver(registry, nil, nil)

	roots, err := r.Resolve(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(roots) != 0 {
		t.Fatalf("expected missing root to be dropped, got %d roots", len(roots))
	}
}

type fakeProvider struct {
	name    string
	entries []string
	parent  Provider
}

func (p *fakeProvider) Name() string                { return p.name }
func (p *fakeProvider) Entries() ([]string, error)  { return p.entries, nil }
func (p *fakeProvider) Parent() (Provider, bool) {
	if p.parent == nil {
		return nil, false
	}
	return p.parent, true
}

func TestResolveWalksProviderParents(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	parent := &fakeProvider{name: "parent", entries: []string{dirB}}
	child := &fakeProvider{name: "child", entries: []string{dirA}, parent: parent}

	registry := NewRegistry()
	registry.RegisterDefault()
	r := NewResolver(registry, nil, nil)

	roots, err := r.Resolve("", []Provider{child})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected roots from both child and parent provider, got %d", len(roots))
	}
}

func TestResolveIgnoreParentSkipsParentWalk(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	parent := &fakeProvider{name: "parent", entries: []string{dirB}}
	child := &fakeProvider{name: "child", entries: []string{dirA}, parent: parent}

	registry := NewRegistry()
	registry.RegisterDefault()
	r := NewResolver(registry, nil, nil)
	r.IgnoreParent = true

	roots, err := r.Resolve("", []Provider{child})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected only the child's root with IgnoreParent set, got %d", len(roots))
	}
}

func TestMergeProvidersFirstSeenWins(t *testing.T) {
	a := []string{"loader-a", "loader-b"}
	b := []string{"loader-b", "loader-c"}
	merged := mergeProviders(a, b)
	want := []string{"loader-a", "loader-b", "loader-c"}
	if len(merged) != len(want) {
		t.Fatalf("expected %v, got %v", want, merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, merged)
		}
	}
}
