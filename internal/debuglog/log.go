package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo // Default to INFO
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       *zerolog.Logger
	logFile      *os.File
)

// DefaultPath is where logs go when Setup is given no file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".srcview", "srcview.log")
}

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, defaults to ~/.srcview/srcview.log. The terminal belongs to
// the TUI, so logs only ever go to a file.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	closeLocked()

	if level == LevelOff {
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(f).
		Level(level.zerolog()).
		With().
		Timestamp().
		Str("app", "srcview").
		Logger()

	logFile = f
	logger = &zl
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	if logger != nil {
		zl := logger.Level(level.zerolog())
		logger = &zl
	}
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// event returns a zerolog event for level, or nil when it would be dropped.
func event(level LogLevel) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if level < currentLevel || logger == nil {
		return nil
	}
	return logger.WithLevel(level.zerolog())
}

// logf writes a log message at the specified level
func logf(level LogLevel, fields map[string]any, format string, args ...any) {
	ev := event(level)
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, nil, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, nil, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, nil, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, nil, format, args...)
}

// FieldLogger attaches a fixed set of structured fields to every message.
type FieldLogger struct {
	fields map[string]any
}

// WithFields returns a new logger with the specified fields
func WithFields(fields map[string]any) *FieldLogger {
	return &FieldLogger{fields: fields}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, fl.fields, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, fl.fields, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, fl.fields, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, fl.fields, format, args...)
}
