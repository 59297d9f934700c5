// internal/utils/logger.go
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// Logger is the structured logger shared by every package
type Logger struct {
	mu      sync.Mutex
	backend *log.Logger
	file    *os.File
	level   LogLevel
	enabled bool
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = NewLogger(os.Stdout)
	})
	return globalLogger
}

// NewLogger builds a logger writing to w
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		backend: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02 15:04:05.000",
			Level:           log.InfoLevel,
		}),
		level:   INFO,
		enabled: true,
	}
}

// InitLogger adds a daily log file under logDir next to stdout
func InitLogger(logDir string) (string, error) {
	logger := GetLogger()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("dreambank-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if logger.file != nil {
		logger.file.Close()
	}
	logger.file = file
	logger.backend.SetOutput(io.MultiWriter(os.Stdout, file))
	return logPath, nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.backend.SetOutput(os.Stdout)
	return err
}

// ParseLogLevel maps debug/info/warn/error/fatal onto a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// SetLogLevel sets the minimum level for logging
func (l *Logger) SetLogLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.backend.SetLevel(toBackendLevel(level))
}

// Enable enables or disables logging
func (l *Logger) Enable(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *Logger) log(level LogLevel, message string, fields map[string]interface{}) {
	l.mu.Lock()
	enabled, minLevel := l.enabled, l.level
	l.mu.Unlock()
	if !enabled || level < minLevel {
		return
	}

	keyvals := flattenFields(fields)
	switch level {
	case DEBUG:
		l.backend.Debug(message, keyvals...)
	case INFO:
		l.backend.Info(message, keyvals...)
	case WARNING:
		l.backend.Warn(message, keyvals...)
	case ERROR:
		l.backend.Error(message, keyvals...)
	case FATAL:
		l.backend.Fatal(message, keyvals...)
	}
}

// flattenFields turns a field map into sorted key/value pairs
func flattenFields(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

func toBackendLevel(level LogLevel) log.Level {
	switch level {
	case DEBUG:
		return log.DebugLevel
	case WARNING:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	case FATAL:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.log(DEBUG, message, fields)
}

func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log(INFO, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log(WARNING, message, fields)
}

func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.log(ERROR, message, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields map[string]interface{}) {
	l.log(FATAL, message, fields)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(WARNING, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil)
}
