package xform

import (
	"bytes"
	"fmt"

	"github.com/h2oxi/pipecut/ir"
)

// Severity indicates whether a log entry is informational, a warning, or
// an error that should abort the transformation, adapted from
// refactoring/log.go's Severity/Entry/Log triple.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return ""
	}
}

// Entry is a single diagnostic, optionally associated with the IR key
// that caused it (the key-based analogue of the teacher's file/position
// association).
type Entry struct {
	Severity Severity
	Message  string
	Key      ir.Key
	HasKey   bool
}

func (e *Entry) String() string {
	var buf bytes.Buffer
	if e.Severity != Info {
		buf.WriteString(e.Severity.String())
		buf.WriteString(": ")
	}
	if e.HasKey {
		fmt.Fprintf(&buf, "key %d: ", e.Key)
	}
	buf.WriteString(e.Message)
	return buf.String()
}

// Log accumulates diagnostics produced while transforming a module.
type Log struct {
	Entries []*Entry
}

// NewLog returns an empty Log.
func NewLog() *Log { return &Log{} }

func (l *Log) log(sev Severity, format string, v ...interface{}) *Entry {
	e := &Entry{Severity: sev, Message: fmt.Sprintf(format, v...)}
	l.Entries = append(l.Entries, e)
	return e
}

// Infof logs an informational message.
func (l *Log) Infof(format string, v ...interface{}) { l.log(Info, format, v...) }

// Warnf logs a warning.
func (l *Log) Warnf(format string, v ...interface{}) { l.log(Warning, format, v...) }

// Errorf logs an error.
func (l *Log) Errorf(format string, v ...interface{}) { l.log(Error, format, v...) }

// AssociateKey attaches the given key to the most recently logged entry,
// the IR-key analogue of refactoring/log.go's AssociatePos.
func (l *Log) AssociateKey(k ir.Key) {
	if len(l.Entries) == 0 {
		return
	}
	e := l.Entries[len(l.Entries)-1]
	e.Key = k
	e.HasKey = true
}

// ContainsErrors reports whether any entry has Error severity.
func (l *Log) ContainsErrors() bool {
	for _, e := range l.Entries {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

func (l *Log) String() string {
	var buf bytes.Buffer
	for _, e := range l.Entries {
		buf.WriteString(e.String())
		buf.WriteString("\n")
	}
	return buf.String()
}
