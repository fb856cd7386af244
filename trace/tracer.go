// Package trace provides a global, filterable execution tracer, kept
// in the same shape the teacher's MOO verb-call tracer used (enable
// flag, glob filters, guarded writer) but retargeted to this module's
// own unit of execution: VM op dispatch and mode transitions.
package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Tracer provides execution tracing for debugging.
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// Global tracer instance.
var globalTracer *Tracer

// Init initializes the global tracer.
func Init(enabled bool, filters []string, writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	globalTracer = &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled.
func IsEnabled() bool {
	if globalTracer == nil {
		return false
	}
	return globalTracer.enabled
}

// matchesFilter checks if a name matches any of the filter patterns.
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true // No filters = trace everything
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Op logs a single VM op dispatch, filtered by op kind name.
func (t *Tracer) Op(ip int, kind string, detail string) {
	if !t.enabled || !t.matchesFilter(kind) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if detail != "" {
		fmt.Fprintf(t.writer, "[TRACE] OP ip=%d %s %s\n", ip, kind, detail)
	} else {
		fmt.Fprintf(t.writer, "[TRACE] OP ip=%d %s\n", ip, kind)
	}
}

// Call logs a command dispatch (builtin/macro/request), filtered by
// command name.
func (t *Tracer) Call(kind string, name string, argCount int) {
	if !t.enabled || !t.matchesFilter(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] CALL %s %s argc=%d\n", kind, name, argCount)
}

// Eval logs the outcome of one command.Manager.Eval call.
func (t *Tracer) Eval(source string, value string, err error) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	src := truncate(source, 60)
	if err != nil {
		fmt.Fprintf(t.writer, "[TRACE] EVAL %q => error: %v\n", src, err)
		return
	}
	fmt.Fprintf(t.writer, "[TRACE] EVAL %q => %q\n", src, truncate(value, 60))
}

// ModeChange logs a mode dispatcher transition.
func (t *Tracer) ModeChange(from, to string) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] MODE %s -> %s\n", from, to)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// Global convenience functions.

// Op logs a VM op dispatch using the global tracer.
func Op(ip int, kind string, detail string) {
	if globalTracer != nil {
		globalTracer.Op(ip, kind, detail)
	}
}

// Call logs a command dispatch using the global tracer.
func Call(kind string, name string, argCount int) {
	if globalTracer != nil {
		globalTracer.Call(kind, name, argCount)
	}
}

// Eval logs an eval outcome using the global tracer.
func Eval(source string, value string, err error) {
	if globalTracer != nil {
		globalTracer.Eval(source, value, err)
	}
}

// ModeChange logs a mode transition using the global tracer.
func ModeChange(from, to string) {
	if globalTracer != nil {
		globalTracer.ModeChange(from, to)
	}
}
