// Package logging builds the service slog.Logger and logs coded errors.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// Options configures [Setup].
type Options struct {
	Service string
	Version string
	// Format is "json" (default) or "text".
	Format string
	// Level is "debug", "info" (default), "warn" or "error".
	Level  string
	Writer io.Writer
}

// serviceHandler stamps every record with service metadata and the active
// span, if any.
type serviceHandler struct {
	next    slog.Handler
	service string
	version string
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}

	return h.next.Handle(ctx, r)
}

func (h *serviceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *serviceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &serviceHandler{next: h.next.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *serviceHandler) WithGroup(name string) slog.Handler {
	return &serviceHandler{next: h.next.WithGroup(name), service: h.service, version: h.version}
}

// Setup returns a logger writing to opts.Writer (stderr when nil).
func Setup(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var base slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		base = slog.NewTextHandler(w, ho)
	} else {
		base = slog.NewJSONHandler(w, ho)
	}

	return slog.New(&serviceHandler{next: base, service: opts.Service, version: opts.Version})
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
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

// LogError logs err at error level. oops errors contribute their code and
// context as attributes.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil || err == nil {
		return
	}

	oe, ok := oops.AsOops(err)
	if !ok {
		logger.ErrorContext(ctx, msg, "error", err.Error())
		return
	}

	attrs := []any{"error", oe.Error()}
	if code := oe.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if c := oe.Context(); len(c) > 0 {
		attrs = append(attrs, "context", c)
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
