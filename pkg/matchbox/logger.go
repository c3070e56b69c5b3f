package matchbox

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dna2zodiac/matchbox/internal/common"
)

// DefaultLogger implements the Logger interface with structured JSON
// logging to stderr.
type DefaultLogger struct {
	mu     sync.Mutex
	level  common.LogLevel
	logger *log.Logger
}

// NewDefaultLogger creates a logger at info level.
func NewDefaultLogger() common.Logger {
	return NewDefaultLoggerWithLevel(common.LogLevelInfo)
}

// NewDefaultLoggerWithLevel creates a logger with a specific log level.
func NewDefaultLoggerWithLevel(level common.LogLevel) common.Logger {
	return &DefaultLogger{
		level:  level,
		logger: log.New(os.Stderr, "", 0),
	}
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelDebug {
		l.log("DEBUG", msg, fields...)
	}
}

// Info logs an info message.
func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelInfo {
		l.log("INFO", msg, fields...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelWarn {
		l.log("WARN", msg, fields...)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelError {
		l.log("ERROR", msg, fields...)
	}
}

func (l *DefaultLogger) log(level, msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"message":   msg,
	}
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			entry[key] = fields[i+1]
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf(`{"level":"ERROR","message":"failed to marshal log entry","error":"%s"}`, err)
		return
	}
	l.logger.Println(string(data))
}

// NewNullLogger creates a logger that discards all messages.
func NewNullLogger() common.Logger { return common.NewNullLogger() }

// ParseLogLevel maps a level name to a LogLevel, defaulting to info.
func ParseLogLevel(level string) common.LogLevel {
	switch level {
	case "debug":
		return common.LogLevelDebug
	case "warn":
		return common.LogLevelWarn
	case "error":
		return common.LogLevelError
	default:
		return common.LogLevelInfo
	}
}
