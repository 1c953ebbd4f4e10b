package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SwappableHandler is a slog.Handler whose underlying handler can be
// replaced atomically at runtime. Loggers handed out before the swap keep
// working and pick up the new handler on their next record.
type SwappableHandler struct {
	handler atomic.Pointer[slog.Handler]
}

// NewSwappableHandler wraps the given initial handler.
func NewSwappableHandler(initial slog.Handler) *SwappableHandler {
	h := &SwappableHandler{}
	h.handler.Store(&initial)
	return h
}

// Swap replaces the underlying handler. Safe to call while logging is in
// progress.
func (h *SwappableHandler) Swap(next slog.Handler) {
	h.handler.Store(&next)
}

func (h *SwappableHandler) current() slog.Handler {
	return *h.handler.Load()
}

// Enabled reports whether the current handler handles records at the given level.
func (h *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current().Enabled(ctx, level)
}

// Handle passes the record to the current handler.
func (h *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

// WithAttrs returns a new SwappableHandler over the current handler with
// the given attributes. The derived handler does not follow later swaps.
func (h *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler(h.current().WithAttrs(attrs))
}

// WithGroup returns a new SwappableHandler over the current handler with
// the given group.
func (h *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler(h.current().WithGroup(name))
}
