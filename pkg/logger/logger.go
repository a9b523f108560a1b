// Package logger provides structured logging for the placement hub.
// Entries are JSON lines; the CLI sends them to stderr so that command
// output on stdout stays readable.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for wiring details: chosen backends, reload counts.
	LevelDebug Level = iota
	// LevelInfo is for state transitions of opportunities, applications and requests.
	LevelInfo
	// LevelWarn is for skipped import rows and degraded startup.
	LevelWarn
	// LevelError is for absorbed persistence failures.
	LevelError

	levelOff
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps LOG_LEVEL values to a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF", "NONE":
		return levelOff
	default:
		return LevelInfo
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// Field is a key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err records err under "error"; a nil error is recorded as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration records d in its String form.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.String()}
}

// ─── Placement fields ────────────────────────────────────────────────────────

func UserID(id string) Field        { return String("user_id", id) }
func Role(role string) Field        { return String("role", role) }
func OpportunityID(id string) Field { return String("opportunity_id", id) }
func ApplicationID(id string) Field { return String("application_id", id) }
func RequestID(id string) Field     { return String("request_id", id) }
func Status(status string) Field    { return String("status", status) }
func Collection(name string) Field  { return String("collection", name) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Slots(n int) Field             { return Int("slots", n) }
func SessionID(id string) Field     { return String("session_id", id) }

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER
// ══════════════════════════════════════════════════════════════════════════════

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Options configures a Logger.
type Options struct {
	// Output defaults to stderr.
	Output io.Writer
	Level  Level

	// AddCaller records file:line of the logging call.
	AddCaller bool

	// Now stamps entries; defaults to time.Now.
	Now func() time.Time
}

// Logger writes leveled JSON entries. Loggers derived with With share the
// parent's output and lock.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	level     Level
	addCaller bool
	now       func() time.Time
	fields    []Field
}

// New creates a Logger.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Logger{
		mu:        &sync.Mutex{},
		output:    opts.Output,
		level:     opts.Level,
		addCaller: opts.AddCaller,
		now:       opts.Now,
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return New(Options{Output: io.Discard, Level: levelOff})
}

// With returns a Logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	derived := *l
	derived.fields = make([]Field, 0, len(l.fields)+len(fields))
	derived.fields = append(derived.fields, l.fields...)
	derived.fields = append(derived.fields, fields...)
	return &derived
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if l.addCaller {
		// log <- Debug/Info/... <- caller
		if _, file, line, ok := runtime.Caller(2); ok {
			if idx := strings.LastIndex(file, "/"); idx >= 0 {
				file = file[idx+1:]
			}
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}
	if n := len(l.fields) + len(fields); n > 0 {
		e.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			e.Fields[f.Key] = f.Value
		}
		// Call-site fields override inherited ones.
		for _, f := range fields {
			e.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(e)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.output, "%s [%s] %s\n", e.Timestamp, e.Level, msg)
		return
	}
	l.output.Write(append(data, '\n'))
}
