// Package monitor implements the chat ingestion engine: a push-path event
// listener and a pull-path poller reconciled through per-chat ratchet
// cursors, supervised by a staleness watchdog with rate-limited resync.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/metrics"
	"github.com/leefowlercu/chatwatcher/internal/registry"
	"github.com/leefowlercu/chatwatcher/internal/sink"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// Tunable defaults. Non-positive configured values fall back to these.
const (
	DefaultStallThreshold      = 30 * time.Minute
	DefaultWatchdogInterval    = time.Minute
	DefaultPollInterval        = 5 * time.Minute
	DefaultPollBatchLimit      = 200
	DefaultMinResyncInterval   = 5 * time.Minute
	DefaultResyncTimeout       = 30 * time.Second
	DefaultHealthWriteInterval = time.Minute
	DefaultHealthFile          = "chatwatcher-health.json"
)

// Config carries the engine tunables.
type Config struct {
	StallThreshold      time.Duration
	WatchdogInterval    time.Duration
	PollInterval        time.Duration
	PollBatchLimit      int
	MinResyncInterval   time.Duration
	ResyncTimeout       time.Duration
	HealthWriteInterval time.Duration
	HealthFile          string
}

func (c *Config) applyDefaults() {
	if c.StallThreshold <= 0 {
		c.StallThreshold = DefaultStallThreshold
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollBatchLimit <= 0 {
		c.PollBatchLimit = DefaultPollBatchLimit
	}
	if c.MinResyncInterval <= 0 {
		c.MinResyncInterval = DefaultMinResyncInterval
	}
	if c.ResyncTimeout <= 0 {
		c.ResyncTimeout = DefaultResyncTimeout
	}
	if c.HealthWriteInterval <= 0 {
		c.HealthWriteInterval = DefaultHealthWriteInterval
	}
	if c.HealthFile == "" {
		c.HealthFile = DefaultHealthFile
	}
}

// Engine owns one monitoring session. Create with New, drive with Run; a
// stopped engine is not reusable.
type Engine struct {
	client telegram.Client
	reg    *registry.Registry
	sink   sink.Writer
	cfg    Config
	logger *slog.Logger

	clock    eventClock
	lastPoll atomic.Int64

	listener *Listener
	poller   *Poller
	resync   *ResyncController
	watchdog *Watchdog
	health   *HealthReporter

	mu    sync.Mutex
	state State
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine and all its components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine monitoring the given targets through client,
// indexing into store.
func New(client telegram.Client, targets []registry.Target, extractor *extract.Extractor, store sink.Writer, cfg Config, opts ...Option) (*Engine, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no monitored chats configured")
	}

	cfg.applyDefaults()

	e := &Engine{
		client: client,
		reg:    registry.New(targets),
		sink:   store,
		cfg:    cfg,
		logger: slog.Default(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}

	proc := &processor{
		reg:       e.reg,
		extractor: extractor,
		sink:      store,
		logger:    e.logger,
	}
	e.listener = &Listener{
		proc:   proc,
		reg:    e.reg,
		clock:  &e.clock,
		logger: e.logger,
	}
	e.poller = &Poller{
		client:   client,
		reg:      e.reg,
		proc:     proc,
		interval: cfg.PollInterval,
		batch:    cfg.PollBatchLimit,
		lastPoll: &e.lastPoll,
		logger:   e.logger,
	}
	e.resync = NewResyncController(client, cfg.MinResyncInterval, cfg.ResyncTimeout, e.logger)
	e.health = NewHealthReporter(cfg.HealthFile, cfg.HealthWriteInterval, e.Snapshot, e.logger)
	e.watchdog = NewWatchdog(e.resync, e.health, &e.clock, cfg.StallThreshold, cfg.WatchdogInterval, e.logger)

	// Any completed resync, successful or not, resets the staleness clock
	// so a failing connection is retried at the resync cadence instead of
	// every watchdog tick.
	e.resync.onComplete = func() {
		e.clock.Touch()
		e.health.Write(true)
	}

	return e, nil
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(target State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.CanTransitionTo(target) {
		e.logger.Warn("invalid engine state transition", "from", string(e.state), "to", string(target))
		return
	}
	e.logger.Debug("engine state transition", "from", string(e.state), "to", string(target))
	e.state = target
}

// Run executes one monitoring session: initialize, then serve all three
// ingestion paths until ctx is cancelled or the client session ends. The
// returned error is the client session error, nil on clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	e.setState(StateInitializing)

	if err := e.initialize(ctx); err != nil {
		e.setState(StateStopped)
		return fmt.Errorf("failed to initialize monitoring session; %w", err)
	}

	e.setState(StateRunning)
	e.clock.Touch()
	e.health.Write(true)

	e.logger.Info("monitoring session started",
		"chats", e.reg.Count(),
		"poll_interval", e.cfg.PollInterval,
		"stall_threshold", e.cfg.StallThreshold)

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.watchdog.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		e.poller.Run(loopCtx)
	}()

	runErr := e.client.Run(ctx)

	e.setState(StateStopping)
	cancel()
	wg.Wait()

	e.client.ClearWarningHook()

	e.setState(StateStopped)
	e.health.Write(true)
	e.health.Flush()

	if err := e.sink.Close(); err != nil {
		e.logger.Warn("failed to close sink", "error", err)
	}

	e.logger.Info("monitoring session stopped")
	return runErr
}

// initialize wires the push path and establishes per-chat cursor baselines.
// A chat that cannot be probed is seeded at zero; a dead transport that
// cannot be re-established is fatal.
func (e *Engine) initialize(ctx context.Context) error {
	if !e.client.IsConnected() {
		if err := e.client.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to connect upstream client; %w", err)
		}
	}

	e.client.Subscribe(e.listener)
	e.client.SetWarningHook(e.watchdog.NotifyWarning)

	metrics.MonitoredChats.Set(float64(e.reg.Count()))

	for _, target := range e.reg.Targets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.seedCursor(ctx, target)
	}

	return nil
}

// seedCursor probes the most recent message of a chat and seeds its cursor.
// Probe failures seed at zero so the first poll sweep recovers the chat
// instead of startup aborting.
func (e *Engine) seedCursor(ctx context.Context, target registry.Target) {
	peer, err := e.client.ResolvePeer(ctx, target.RawID)
	if err != nil {
		e.logger.Warn("failed to resolve chat during seeding", "chat", target.Title, "error", err)
		e.reg.Seed(target.ID, 0)
		return
	}

	msgs, err := e.client.FetchLatest(ctx, peer, 1)
	if err != nil {
		e.logger.Warn("failed to probe chat history during seeding", "chat", target.Title, "error", err)
		e.reg.Seed(target.ID, 0)
		return
	}

	var baseline uint64
	if len(msgs) > 0 {
		baseline = msgs[0].ID
	}
	e.reg.Seed(target.ID, baseline)
	e.logger.Debug("seeded chat cursor", "chat", target.Title, "cursor", baseline)
}

// Snapshot captures the engine's current health for persistence.
func (e *Engine) Snapshot() HealthSnapshot {
	snap := HealthSnapshot{
		Status:         "stopped",
		Connected:      e.client.IsConnected(),
		MonitoredChats: e.reg.Count(),
		GeneratedAt:    time.Now().UTC(),
	}
	if e.State() == StateRunning {
		snap.Status = "running"
	}

	if age, ok := e.clock.Age(); ok {
		secs := age.Seconds()
		snap.LastEventAgeSeconds = &secs
	}

	if last := e.lastPoll.Load(); last != 0 {
		t := time.Unix(0, last).UTC()
		snap.LastPollAt = &t
	}

	if rs := e.resync.State(); !rs.At.IsZero() {
		snap.LastResync = &ResyncSnapshot{
			At:     rs.At.UTC(),
			Reason: rs.Reason,
			Status: string(rs.Status),
		}
	}

	return snap
}
