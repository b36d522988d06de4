// Package logging is a small structured wrapper over the standard library
// log package, matching the teacher's plain stderr logging style
// (fmt.Printf/log.Printf, no third-party logging framework) while giving
// each worker a named prefix and a key=value field tail.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger prefixes every line with a component name and appends structured
// fields as key=value pairs, the way the teacher's workers would tag their
// own stderr output if more than one ran in the same process.
type Logger struct {
	component string
	out       *log.Logger
}

// New creates a Logger that writes to stderr with the given component name.
func New(component string) *Logger {
	return &Logger{component: component, out: log.New(os.Stderr, "", log.LstdFlags)}
}

// Field is one key=value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F is a shorthand constructor for Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

func (l *Logger) line(level, msg string, fields []Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", level, l.component, msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

// Info logs an informational line.
func (l *Logger) Info(msg string, fields ...Field) { l.out.Print(l.line("INFO", msg, fields)) }

// Warn logs a recoverable-condition line (spec §7's Transient/Protocol
// violation policy: log, don't crash the worker).
func (l *Logger) Warn(msg string, fields ...Field) { l.out.Print(l.line("WARN", msg, fields)) }

// Error logs a non-fatal error line.
func (l *Logger) Error(msg string, fields ...Field) { l.out.Print(l.line("ERROR", msg, fields)) }

// Fatal logs a fatal-policy error line (spec §7's Fatal error kind) without
// terminating the process itself — the coordinator decides when to stop.
func (l *Logger) Fatal(msg string, fields ...Field) { l.out.Print(l.line("FATAL", msg, fields)) }

// With returns a Logger for a sub-component, e.g. logging.New("gpu").With("vblank").
func (l *Logger) With(subComponent string) *Logger {
	return &Logger{component: l.component + "." + subComponent, out: l.out}
}
