package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leefowlercu/chatwatcher/internal/metrics"
)

// Watchdog periodically checks stream liveness and triggers resyncs. Two
// conditions can trigger a resync on a tick, checked in priority order: a
// pending transport warning reported by the client, then a stalled event
// clock. At most one resync is requested per tick.
type Watchdog struct {
	resync   *ResyncController
	health   *HealthReporter
	clock    *eventClock
	stall    time.Duration
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending string
}

// NewWatchdog creates a watchdog that ticks every interval and treats an
// event clock older than stall as a stalled stream.
func NewWatchdog(resync *ResyncController, health *HealthReporter, clock *eventClock, stall, interval time.Duration, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		resync:   resync,
		health:   health,
		clock:    clock,
		stall:    stall,
		interval: interval,
		logger:   logger,
	}
}

// NotifyWarning records a transport-level warning for consumption on the
// next tick. Safe to call from any goroutine; only the most recent warning
// between ticks is kept.
func (w *Watchdog) NotifyWarning(reason string) {
	w.mu.Lock()
	w.pending = reason
	w.mu.Unlock()
	w.logger.Warn("transport warning received", "reason", reason)
}

// Run ticks until the context is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watchdog) tick(ctx context.Context) {
	if age, ok := w.clock.Age(); ok {
		metrics.LastEventAge.Set(age.Seconds())
	}

	if reason, ok := w.consumeWarning(); ok {
		w.resync.Resync(ctx, fmt.Sprintf("transport warning: %s", reason))
	} else if age, ok := w.clock.Age(); ok && age > w.stall {
		w.logger.Warn("event stream stalled", "age", age.Round(time.Second), "threshold", w.stall)
		w.resync.Resync(ctx, fmt.Sprintf("no events for %s (stall threshold %s)", age.Round(time.Second), w.stall))
	}

	w.health.Write(false)
}

func (w *Watchdog) consumeWarning() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == "" {
		return "", false
	}
	reason := w.pending
	w.pending = ""
	return reason, true
}
