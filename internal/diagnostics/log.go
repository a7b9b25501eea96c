// Package diagnostics implements the scan's hierarchical structured log: a
// tree of timestamped nodes that many worker goroutines append to
// concurrently, flushed to a writer once at the end of a scan.
//
// Grounded on pkg/utils.Logger (level enum, WithField(s)
// scoping, formatted-message-plus-fields log line shape), generalized from
// a flat writer into a tree: each WithField-style scope in
// becomes a child Log here, and a scan's log is the union of every
// worker's and phase's child tree rather than one shared stream.
package diagnostics

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level mirrors utils.LogLevel's severity ordering.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// entry is one leaf log line recorded on a node.
type entry struct {
	timestamp time.Time
	level     Level
	message   string
}

// node is one point in the log tree: a named scope (a scan phase, a
// worker, an archive root) holding its own entries plus child scopes.
type node struct {
	mu       sync.Mutex
	name     string
	entries  []entry
	children []*node
}

// Log is a handle onto one node of the diagnostics tree. The root Log is
// created with New; every other Log is obtained via Child and is safe to
// use concurrently with its siblings and its parent.
type Log struct {
	level Level
	n     *node
}

// New builds the root of a diagnostics tree named name, at minimum
// severity level (entries below level are discarded, matching
// pkg/utils.DefaultLogger's level gate).
func New(name string, level Level) *Log {
	return &Log{level: level, n: &node{name: name}}
}

// Child creates a new named child scope nested under l; calling it twice
// with the same name yields two separate children. Safe to call
// concurrently from multiple goroutines sharing the same parent Log, e.g.
// one Child call per worker.
func (l *Log) Child(name string) *Log {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	child := &node{name: name}
	l.n.children = append(l.n.children, child)
	return &Log{level: l.level, n: child}
}

func (l *Log) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	l.n.entries = append(l.n.entries, entry{
		timestamp: time.Now(),
		level:     level,
		message:   fmt.Sprintf(format, args...),
	})
}

func (l *Log) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Log) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Log) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Log) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Flush serializes the whole tree rooted at l's node to w, depth-first,
// indenting child scopes under their parent. Call once, after every
// worker and phase holding a reference to this tree has finished logging;
// Flush itself takes no lock beyond each node's own, so a Flush
// overlapping with a straggling writer only risks an interleaved (not
// corrupted) final line.
func (l *Log) Flush(w io.Writer) error {
	return flushNode(w, l.n, 0)
}

func flushNode(w io.Writer, n *node, depth int) error {
	indent := strings.Repeat("  ", depth)

	n.mu.Lock()
	entries := make([]entry, len(n.entries))
	copy(entries, n.entries)
	children := make([]*node, len(n.children))
	copy(children, n.children)
	n.mu.Unlock()

	if n.name != "" {
		if _, err := fmt.Fprintf(w, "%s[%s]\n", indent, n.name); err != nil {
			return err
		}
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s%s [%s] %s\n", indent, e.timestamp.Format("2006-01-02 15:04:05.000"), e.level, e.message)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	for _, child := range children {
		if err := flushNode(w, child, depth+1); err != nil {
			return err
		}
	}

	return nil
}
