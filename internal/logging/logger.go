package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled entries tagged with a component name and a set of
// context fields. Derived loggers share the same output writer.
type Logger struct {
	level     Level
	component string
	out       *syncWriter
	fields    map[string]interface{}
	now       func() time.Time
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(p)
}

// NewLogger creates a logger for a component. A nil output writes to stdout.
func NewLogger(component string, level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:     level,
		component: component,
		out:       &syncWriter{w: output},
		now:       time.Now,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger("discard", ERROR+1, io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Component returns a logger for another component sharing this logger's
// level and output.
func (l *Logger) Component(name string) *Logger {
	return &Logger{level: l.level, component: name, out: l.out, fields: l.fields, now: l.now}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// WithContext returns a derived logger carrying one extra field.
func (l *Logger) WithContext(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger carrying the given fields on top of
// the current ones.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, component: l.component, out: l.out, fields: merged, now: l.now}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	file, fn := "unknown", "unknown"
	line := 0
	// skip log() and the exported level method
	if pc, f, ln, ok := runtime.Caller(2); ok {
		file, line = filepath.Base(f), ln
		if rf := runtime.FuncForPC(pc); rf != nil {
			fn = filepath.Base(rf.Name())
		}
	}

	l.out.write([]byte(render(l.now(), level, l.component, file, line, fn, fmt.Sprintf(format, args...), l.fields)))
}

// render formats one entry:
// [YYYY-MM-DD HH:MM:SS] LEVEL [component] file.go:line function message key=value
func render(ts time.Time, level Level, component, file string, line int, fn, msg string, fields map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(ts.Format("2006-01-02 15:04:05"))
	sb.WriteString("] ")
	sb.WriteString(level.String())
	sb.WriteString(" [")
	sb.WriteString(component)
	sb.WriteString("] ")
	fmt.Fprintf(&sb, "%s:%d %s ", file, line, fn)
	sb.WriteString(sanitize(msg))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}
	sb.WriteString("\n")
	return sb.String()
}

// sanitize replaces control characters other than tab with a space so a
// message cannot forge extra log lines.
func sanitize(msg string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, msg)
}
