package logging

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level represents a log level
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel returns LevelInfo for unrecognised input
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	minLevel atomic.Int32
	output   = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	minLevel.Store(int32(LevelInfo))
}

// Configure sets the global level and, when w is non-nil, the destination.
func Configure(level string, w io.Writer) {
	minLevel.Store(int32(ParseLevel(level)))
	if w != nil {
		output.SetOutput(w)
	}
}

type requestIDKey struct{}

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from ctx, or "" when absent
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging bound to a request
type Logger struct {
	requestID string
}

// NewLogger creates a logger with request context
func NewLogger(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{requestID: requestID}
}

func (l *Logger) enabled(level Level) bool {
	return level >= Level(minLevel.Load())
}

func (l *Logger) printf(level Level, operation, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	output.Printf("[%s] request_id=%s operation=%s "+format,
		append([]interface{}{level, l.requestID, operation}, args...)...)
}

// LogDebugf logs a formatted debug message with context
func (l *Logger) LogDebugf(operation string, format string, args ...interface{}) {
	l.printf(LevelDebug, operation, format, args...)
}

// LogInfo logs an info message with context
func (l *Logger) LogInfo(operation string, message string) {
	l.printf(LevelInfo, operation, "message=%s", message)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.printf(LevelInfo, operation, format, args...)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.printf(LevelWarn, operation, format, args...)
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	l.printf(LevelError, operation, "error=%v", err)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.printf(LevelError, operation, format, args...)
}
