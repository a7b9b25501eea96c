package scanspec

import "testing"

func TestClassAllowedNoRestriction(t *testing.T) {
	m := NewMatcher(New())
	if !m.ClassAllowed("com.example.Widget") {
		t.Fatalf("expected class allowed with no whitelist/blacklist")
	}
}

func TestClassAllowedBlacklistWinsOverWhitelist(t *testing.T) {
	spec := New(
		WithWhitelistPackages("com.example"),
		WithBlacklistPackages("com.example.internal"),
	)
	m := NewMatcher(spec)

	if !m.ClassAllowed("com.example.Widget") {
		t.Fatalf("expected com.example.Widget allowed")
	}
	if m.ClassAllowed("com.example.internal.Secret") {
		t.Fatalf("expected com.example.internal.Secret blacklisted")
	}
}

func TestClassAllowedNonStrictWhitelistStillAllowsOutsiders(t *testing.T) {
	spec := New(WithWhitelistPackages("com.example"))
	m := NewMatcher(spec)

	if !m.ClassAllowed("org.other.Thing") {
		t.Fatalf("expected non-strict whitelist to still allow classes outside it")
	}
}

func TestClassAllowedStrictWhitelistExcludesOutsiders(t *testing.T) {
	spec := New(
		WithWhitelistPackages("com.example"),
		WithStrictWhitelist(true),
	)
	m := NewMatcher(spec)

	if m.ClassAllowed("org.other.Thing") {
		t.Fatalf("expected strict whitelist to exclude classes outside it")
	}
	if !m.ClassAllowed("com.example.Widget") {
		t.Fatalf("expected strict whitelist to still allow matching classes")
	}
}

func TestClassAllowedDoesNotMatchSiblingPrefix(t *testing.T) {
	spec := New(WithBlacklistPackages("com.example.io"))
	m := NewMatcher(spec)

	if !m.ClassAllowed("com.example.iostats.Counter") {
		t.Fatalf("expected package-prefix match to respect dot boundary, not substring prefix")
	}
}

func TestJarAllowed(t *testing.T) {
	spec := New(
		WithWhitelistJars("app.jar", "lib-core.jar"),
		WithBlacklistJars("lib-debug.jar"),
	)
	m := NewMatcher(spec)

	if !m.JarAllowed("app.jar") {
		t.Fatalf("expected app.jar allowed")
	}
	if m.JarAllowed("other.jar") {
		t.Fatalf("expected other.jar excluded by non-empty whitelist")
	}
	if m.JarAllowed("lib-debug.jar") {
		t.Fatalf("expected lib-debug.jar blacklisted even if it were whitelisted")
	}
}

func TestJarAllowedNoWhitelistAllowsAllButBlacklist(t *testing.T) {
	spec := New(WithBlacklistJars("blocked.jar"))
	m := NewMatcher(spec)

	if !m.JarAllowed("anything.jar") {
		t.Fatalf("expected jars allowed with no whitelist set")
	}
	if m.JarAllowed("blocked.jar") {
		t.Fatalf("expected blocked.jar blacklisted")
	}
}

func TestClassAllowedCacheConsistency(t *testing.T) {
	spec := New(WithBlacklistPackages("com.example"))
	m := NewMatcher(spec)

	first := m.ClassAllowed("com.example.Widget")
	second := m.ClassAllowed("com.example.Widget")
	if first != second {
		t.Fatalf("expected cached result to match uncached result")
	}

	m.ClearCache()
	third := m.ClassAllowed("com.example.Widget")
	if third != first {
		t.Fatalf("expected result to be stable across cache clear")
	}
}
