package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/leefowlercu/chatwatcher/internal/metrics"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// ResyncStatus classifies the outcome of a resync attempt.
type ResyncStatus string

const (
	ResyncSuccess ResyncStatus = "success"
	ResyncTimeout ResyncStatus = "timeout"
	ResyncError   ResyncStatus = "error"
)

// ResyncState describes the most recent resync attempt.
type ResyncState struct {
	At     time.Time
	Reason string
	Status ResyncStatus
}

// ResyncController serializes and rate-limits connection recovery attempts.
// At most one resync runs at a time; overlapping requests are dropped, not
// queued. A token-bucket limiter with burst 1 enforces the minimum interval
// between attempts, so a request arriving during the refill window is also
// dropped.
type ResyncController struct {
	client  telegram.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger

	// onComplete fires after every completed attempt regardless of outcome;
	// the engine uses it to reset the staleness clock and flush health.
	onComplete func()

	inFlight sync.Mutex

	mu   sync.Mutex
	last ResyncState
}

// NewResyncController creates a controller that performs recovery through
// the given client, allowing at most one attempt per minInterval.
func NewResyncController(client telegram.Client, minInterval, timeout time.Duration, logger *slog.Logger) *ResyncController {
	return &ResyncController{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		timeout: timeout,
		logger:  logger,
	}
}

// Resync attempts a connection recovery for the given reason. The call is a
// no-op when another resync is in flight or the rate limiter has no token
// available. It blocks until the attempt completes or times out.
func (c *ResyncController) Resync(ctx context.Context, reason string) {
	if !c.inFlight.TryLock() {
		c.logger.Debug("resync already in flight; dropping request", "reason", reason)
		return
	}
	defer c.inFlight.Unlock()

	if !c.limiter.Allow() {
		c.logger.Debug("resync rate limited; dropping request", "reason", reason)
		return
	}

	started := time.Now()
	c.logger.Info("starting resync", "reason", reason)

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := c.perform(attemptCtx)

	c.mu.Lock()
	c.last = ResyncState{At: started, Reason: reason, Status: status}
	c.mu.Unlock()

	metrics.ResyncAttempts.WithLabelValues(string(status)).Inc()

	switch status {
	case ResyncSuccess:
		c.logger.Info("resync completed", "reason", reason, "duration", time.Since(started).Round(time.Millisecond))
	default:
		c.logger.Warn("resync failed", "reason", reason, "status", string(status), "duration", time.Since(started).Round(time.Millisecond))
	}

	if c.onComplete != nil {
		c.onComplete()
	}
}

// perform runs the actual recovery sequence: reconnect if the transport is
// down, then replay missed updates, falling back to a liveness probe when
// the client cannot replay.
func (c *ResyncController) perform(ctx context.Context) ResyncStatus {
	if !c.client.IsConnected() {
		if err := c.client.Reconnect(ctx); err != nil {
			c.logger.Warn("reconnect failed during resync", "error", err)
			return classifyResyncErr(ctx, err)
		}
	}

	err := c.client.CatchUp(ctx)
	if errors.Is(err, telegram.ErrCatchUpUnsupported) {
		err = c.client.Ping(ctx)
	}
	if err != nil {
		return classifyResyncErr(ctx, err)
	}
	return ResyncSuccess
}

// State returns the most recent resync attempt. The zero value is returned
// when no attempt has completed yet.
func (c *ResyncController) State() ResyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func classifyResyncErr(ctx context.Context, err error) ResyncStatus {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return ResyncTimeout
	}
	return ResyncError
}
