package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Log levels in increasing severity.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
)

// -----------------------------------------------------------------------------

// Logger provides named, leveled logging.
type Logger struct {
	name     string
	logger   *log.Logger
	minLevel int
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. levelName comes from the config
// log_level key; unknown or empty names default to INFO.
func NewLogger(levelName string, name string) *Logger {
	return &Logger{
		name:     name,
		logger:   log.New(os.Stdout, "", log.LstdFlags),
		minLevel: parseLevel(levelName),
	}
}

// -----------------------------------------------------------------------------

func parseLevel(levelName string) int {
	switch strings.ToUpper(levelName) {
	case "DEBUG":
		return LevelDebug
	case "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...interface{}) {
	l.emit(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}

// -----------------------------------------------------------------------------

func (l *Logger) emit(level int, tag string, format string, args ...interface{}) {
	if level < l.minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}
