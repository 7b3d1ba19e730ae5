// Package logger builds the application's structured logger and the HTTP
// middleware that attaches a request-scoped logger to each request.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Common field names
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldClientIP   = "client_ip"
	FieldError      = "error"
	FieldUserID     = "user_id"
)

// Component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentStorage     = "storage"
	ComponentTransaction = "transaction"
	ComponentAuth        = "auth"
	ComponentEvents      = "events"
)

// Config controls level and output format
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger from cfg. Format "json" selects the JSON handler,
// anything else the text handler.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithComponent returns a child logger tagged with component
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(FieldComponent, component)
}

type contextKey struct{}

// IntoContext stores l in ctx
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request logger, or slog.Default when none is set
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
