// Package logging provides the component-tagged leveled logger used by the
// CLI, the HTTP server and the background jobs.
package logging

import (
	"io"
	"log"
	"os"
	"sync"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

var levelRank = map[entities.LogLevel]int{
	entities.LogLevelDebug: 0,
	entities.LogLevelInfo:  1,
	entities.LogLevelWarn:  2,
	entities.LogLevelError: 3,
}

// Logger writes "[LEVEL] [component] message" lines
type Logger struct {
	component string
	verbose   bool
	out       *log.Logger

	mu    sync.RWMutex
	level entities.LogLevel
}

// New creates a logger writing to stderr at info level
func New(component string) *Logger {
	return NewWithOutput(component, entities.LogLevelInfo, os.Stderr)
}

// NewWithLevel creates a stderr logger at the given level
func NewWithLevel(component string, level entities.LogLevel) *Logger {
	return NewWithOutput(component, level, os.Stderr)
}

// NewWithOutput creates a logger writing to w
func NewWithOutput(component string, level entities.LogLevel, w io.Writer) *Logger {
	return &Logger{
		component: component,
		level:     level,
		out:       log.New(w, "", log.LstdFlags),
	}
}

// FromConfig builds a logger from the [logging] section. Verbose forces
// debug level.
func FromConfig(component string, cfg entities.LoggingConfig) *Logger {
	level := cfg.GetLevel()
	if cfg.Verbose {
		level = entities.LogLevelDebug
	}
	l := NewWithLevel(component, level)
	l.verbose = cfg.Verbose
	return l
}

// With returns a logger for another component sharing output and level
func (l *Logger) With(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		component: component,
		verbose:   l.verbose,
		out:       l.out,
		level:     l.level,
	}
}

// SetLevel updates the logging level
func (l *Logger) SetLevel(level entities.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Verbose reports whether verbose output was requested
func (l *Logger) Verbose() bool {
	return l.verbose
}

func (l *Logger) shouldLog(msgLevel entities.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return levelRank[msgLevel] >= levelRank[l.level]
}

func (l *Logger) printf(tag, msg string, args []interface{}) {
	l.out.Printf("["+tag+"] [%s] "+msg, append([]interface{}{l.component}, args...)...)
}

// Debug logs debug messages (only if debug level is enabled)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelDebug) {
		l.printf("DEBUG", msg, args)
	}
}

// Info logs informational messages
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		l.printf("INFO", msg, args)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelWarn) {
		l.printf("WARN", msg, args)
	}
}

// Error logs error messages (always logged)
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelError) {
		l.printf("ERROR", msg, args)
	}
}

// Success logs success messages at info level
func (l *Logger) Success(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		l.printf("SUCCESS", msg, args)
	}
}

// Discard returns a logger that drops everything, for tests
func Discard() *Logger {
	return NewWithOutput("discard", entities.LogLevelError, io.Discard)
}
