package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey keeps our context values from colliding with other packages
type contextKey string

// RequestIDKey is the context key under which the HTTP layer stores the request ID
const RequestIDKey contextKey = "request_id"

// Logger wraps slog for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.
// format is "json" (default) or "text".
func New(level, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything; handy in tests
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID extracts the request ID from ctx, or "" if none is set
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// WithContext adds context values to the logger
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if requestID := RequestID(ctx); requestID != "" {
		return &Logger{Logger: l.With("request_id", requestID)}
	}
	return l
}

// WithFields adds additional fields to the logger
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...)}
}
