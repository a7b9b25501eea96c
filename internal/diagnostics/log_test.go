package diagnostics

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/classgraph/internal/classpath"
)

func TestLogSatisfiesClasspathLogger(t *testing.T) {
	var _ classpath.Logger = New("scan", LevelInfo)
}

func TestFlushIncludesParentAndChildEntries(t *testing.T) {
	root := New("scan", LevelInfo)
	root.Info("starting scan of %d roots", 3)

	worker := root.Child("worker-0")
	worker.Warn("skipped %s: unreadable", "bad.jar")

	var buf bytes.Buffer
	if err := root.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "starting scan of 3 roots") {
		t.Errorf("missing root entry in output:\n%s", out)
	}
	if !strings.Contains(out, "worker-0") || !strings.Contains(out, "skipped bad.jar: unreadable") {
		t.Errorf("missing child entry in output:\n%s", out)
	}
}

func TestLevelGateDropsBelowThreshold(t *testing.T) {
	root := New("scan", LevelWarn)
	root.Debug("should not appear")
	root.Info("also should not appear")
	root.Warn("should appear")

	var buf bytes.Buffer
	root.Flush(&buf)

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug/info entries leaked through a Warn-level gate:\n%s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn entry missing:\n%s", out)
	}
}

func TestConcurrentChildAppendsAreRaceFree(t *testing.T) {
	root := New("scan", LevelInfo)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			child := root.Child("worker")
			child.Info("unit %d done", i)
		}(i)
	}
	wg.Wait()

	var buf bytes.Buffer
	if err := root.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if strings.Count(buf.String(), "worker") != 20 {
		t.Errorf("expected 20 child scopes, got:\n%s", buf.String())
	}
}
