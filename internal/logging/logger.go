// Package logging provides categorized file-based logging for Reverie.
// Each category writes to its own file under <data_dir>/logs. When debug
// mode is off the whole package is a silent no-op, so pipeline code can log
// unconditionally.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log stream.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup and shutdown
	CategoryChat     Category = "chat"     // chat turn handling
	CategoryStore    Category = "store"    // SQLite operations
	CategoryModel    Category = "model"    // Gemini API calls
	CategoryDaydream Category = "daydream" // periodic personality analysis
	CategoryDream    Category = "dream"    // persona synthesis
	CategoryServer   Category = "server"   // HTTP surface
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger writes timestamped lines for one category.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu       sync.RWMutex
	loggers  = make(map[Category]*Logger)
	logsDir  string
	enabled  bool
	minLevel = LevelInfo
)

// Configure sets up the logging directory and debug mode. Call once at
// startup; until then (or with debug=false) all logging is a no-op.
func Configure(dataDir string, debug bool, level string) error {
	mu.Lock()
	defer mu.Unlock()

	enabled = debug
	switch level {
	case "debug":
		minLevel = LevelDebug
	case "warn", "warning":
		minLevel = LevelWarn
	case "error":
		minLevel = LevelError
	default:
		minLevel = LevelInfo
	}

	if !enabled {
		return nil
	}

	logsDir = filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// Get returns the logger for a category, creating its file on first use.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{category: category}
	if enabled && logsDir != "" {
		path := filepath.Join(logsDir, string(category)+".log")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			l.file = f
			l.logger = log.New(f, "", 0)
		}
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, tag, format string, args ...interface{}) {
	mu.RLock()
	on := enabled && l.logger != nil && level >= minLevel
	mu.RUnlock()
	if !on {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("%s [%s] %s", ts, tag, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// Category shorthands, used by pipeline code.

// Chat logs chat-turn activity at info level.
func Chat(format string, args ...interface{}) { Get(CategoryChat).Info(format, args...) }

// Store logs store activity at info level.
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs store activity at debug level.
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Model logs model-call activity at info level.
func Model(format string, args ...interface{}) { Get(CategoryModel).Info(format, args...) }

// Daydream logs daydream-pipeline activity at info level.
func Daydream(format string, args ...interface{}) { Get(CategoryDaydream).Info(format, args...) }

// Dream logs dream-pipeline activity at info level.
func Dream(format string, args ...interface{}) { Get(CategoryDream).Info(format, args...) }

// Close flushes and closes all category files. Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
			l.file = nil
			l.logger = nil
		}
	}
	loggers = make(map[Category]*Logger)
}

// Timer measures the duration of an operation and logs it on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation for the given category.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, start: time.Now()}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() {
	Get(t.category).Debug("%s took %s", t.op, time.Since(t.start))
}
