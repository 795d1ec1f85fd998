// Package logger builds the slog loggers used across the engine:
// JSON to stdout, optional context extractors for request-scoped
// attributes, and an optional Sentry destination for warnings and
// errors.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ContextExtractor pulls a slog attribute out of a context, letting
// the host attach request-scoped values (user ID, request ID) to
// every engine log line.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New creates a JSON stdout logger with the given extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(decorate(h, extractors...))
}

// Discard creates a logger that drops everything. Used as the default
// when the embedder configures no logging.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// contextHandler injects extractor attributes per log call so fresh
// request-scoped values are captured each time.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func decorate(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	if len(clean) == 0 {
		return next
	}
	return &contextHandler{next: next, extractors: clean}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
