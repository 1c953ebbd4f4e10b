package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/leefowlercu/chatwatcher/internal/metrics"
	"github.com/leefowlercu/chatwatcher/internal/registry"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// Poller is the pull-path safety net. Every tick it sweeps all monitored
// chats, fetches history strictly above each chat's cursor, and routes the
// results through the shared processing path. Push delivery normally keeps
// cursors at the tip, making poll sweeps cheap no-ops; the poller only does
// real work across push-path gaps.
type Poller struct {
	client   telegram.Client
	reg      *registry.Registry
	proc     *processor
	interval time.Duration
	batch    int
	lastPoll *atomic.Int64
	logger   *slog.Logger
}

// Run sweeps on every tick until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick sweeps all monitored chats once. A failing chat is logged and
// skipped; it never aborts the sweep.
func (p *Poller) tick(ctx context.Context) {
	started := time.Now()

	for _, target := range p.reg.Targets() {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollChat(ctx, target); err != nil {
			p.logger.Warn("failed to poll chat", "chat", target.Title, "error", err)
			metrics.PollErrors.Inc()
		}
	}

	p.lastPoll.Store(time.Now().UnixNano())
	metrics.PollTickDuration.Observe(time.Since(started).Seconds())
}

func (p *Poller) pollChat(ctx context.Context, target registry.Target) error {
	peer, err := p.client.ResolvePeer(ctx, target.RawID)
	if err != nil {
		return err
	}

	// A chat whose cursor was never seeded gets its baseline here instead
	// of a backlog replay.
	if !p.reg.IsSeeded(target.ID) {
		return p.seedChat(ctx, target, peer)
	}

	cursor, _ := p.reg.LastSeen(target.ID)
	msgs, err := p.client.FetchSince(ctx, peer, cursor, p.batch)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		p.proc.process(ctx, target, msg, metrics.PathPoll)
	}

	if len(msgs) > 0 {
		p.logger.Debug("poll sweep picked up messages", "chat", target.Title, "count", len(msgs))
	}
	return nil
}

// seedChat establishes the cursor baseline from the most recent upstream
// message without processing it. An empty chat is seeded at zero so the
// first real message is picked up.
func (p *Poller) seedChat(ctx context.Context, target registry.Target, peer telegram.Peer) error {
	msgs, err := p.client.FetchLatest(ctx, peer, 1)
	if err != nil {
		return err
	}

	var baseline uint64
	if len(msgs) > 0 {
		baseline = msgs[0].ID
	}
	p.reg.Seed(target.ID, baseline)
	p.logger.Info("seeded chat cursor", "chat", target.Title, "cursor", baseline)
	return nil
}
