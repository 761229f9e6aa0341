package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldService is the field name for the service.
	LogFieldService = "service"
	// LogFieldRunID is the field name for run ID.
	LogFieldRunID = "run_id"
	// LogFieldCommand is the field name for the CLI command.
	LogFieldCommand = "command"
	// LogFieldUsername is the field name for the edited user.
	LogFieldUsername = "username"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldBlocks is the field name for a block count.
	LogFieldBlocks = "blocks"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
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

// NewLogger builds a text or JSON logger writing to w.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(LogFieldService, "meetgrid")
}

// RunContext represents a single CLI invocation with structured logging.
type RunContext struct {
	RunID     string
	Command   string
	Username  string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRunContext creates a new run context with a generated run ID.
func NewRunContext(logger *slog.Logger, command, username string) *RunContext {
	return &RunContext{
		RunID:     uuid.New().String(),
		Command:   command,
		Username:  username,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (r *RunContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.attrs(attrs...)...)
}

// Debug logs a debug message.
func (r *RunContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.attrs(attrs...)...)
}

// Error logs an error message with the error.
func (r *RunContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.attrs(attrs...)...)
}

// Done logs completion with the elapsed time.
func (r *RunContext) Done(attrs ...slog.Attr) {
	attrs = append(attrs, slog.Int64(LogFieldDuration, r.Duration().Milliseconds()))
	r.Info("command finished", attrs...)
}

// Duration returns the elapsed time since the run started.
func (r *RunContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

func (r *RunContext) attrs(extra ...slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRunID, r.RunID),
		slog.String(LogFieldCommand, r.Command),
		slog.String(LogFieldUsername, r.Username),
	}
	return append(base, extra...)
}

type ctxKey struct{}

// WithRunContext adds the run context to the context.
func WithRunContext(ctx context.Context, run *RunContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, run)
}

// FromContext extracts the run context from the context.
func FromContext(ctx context.Context) (*RunContext, bool) {
	run, ok := ctx.Value(ctxKey{}).(*RunContext)
	return run, ok
}
