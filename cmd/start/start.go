// Package start provides the start command, the foreground chat monitor.
package start

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/leefowlercu/chatwatcher/internal/chatid"
	"github.com/leefowlercu/chatwatcher/internal/config"
	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/monitor"
	"github.com/leefowlercu/chatwatcher/internal/pidfile"
	"github.com/leefowlercu/chatwatcher/internal/registry"
	"github.com/leefowlercu/chatwatcher/internal/sink/redisink"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
	"github.com/leefowlercu/chatwatcher/internal/telegram/bridge"
)

// StartCmd starts the chat monitor in foreground mode.
var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat monitor in foreground mode",
	Long: "Start the chat monitor in foreground mode.\n\n" +
		"The monitor will run in the foreground, ingesting messages from the configured " +
		"chats over the live event stream and the periodic history poll, and indexing " +
		"them into Redis. Use standard backgrounding methods like '&', 'nohup', or " +
		"platform-specific service runners (launchd, systemd) to run the monitor in " +
		"the background.",
	Example: `  # Start monitor in foreground
  chatwatcher start

  # Start monitor in background
  chatwatcher start &

  # Start monitor with nohup
  nohup chatwatcher start &`,
	PreRunE: validateStart,
	RunE:    runStart,
}

func validateStart(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	targets := buildTargets(cfg)
	if len(targets) == 0 {
		return errors.New("no monitored chats configured; run 'chatwatcher chats' to select some")
	}

	// One monitor per host; a second instance would double-index every chat.
	pf := pidfile.New(filepath.Join(config.ConfigDir(), "chatwatcher.pid"))
	if err := pf.CheckAndClaim(); err != nil {
		if errors.Is(err, pidfile.ErrAlreadyRunning) {
			return fmt.Errorf("another chatwatcher monitor is already running (pid file %s)", pf.Path())
		}
		return fmt.Errorf("failed to claim PID file; %w", err)
	}
	defer func() { _ = pf.Remove() }()

	// Create context that cancels on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := redisink.New(ctx, redisink.Config{
		Addr:        cfg.Redis.Addr,
		Username:    cfg.Redis.Username,
		PasswordEnv: cfg.Redis.PasswordEnv,
		DB:          cfg.Redis.DB,
		Namespace:   cfg.Redis.Namespace,
	}, redisink.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize search sink; %w", err)
	}

	client := bridge.New(cfg.Telegram.BridgeURL, cfg.Telegram.Session, bridge.WithLogger(logger))
	extractor := extract.New(extract.WithLogger(logger))

	eng, err := monitor.New(client, targets, extractor, store, engineConfig(cfg), monitor.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build monitor; %w", err)
	}

	// Warn the operator when the config file changes mid-session; the
	// monitored chat set is fixed until restart.
	go config.WatchFile(ctx, config.LoadedFilePath(), logger)

	notifyReady(ctx, eng)
	defer func() { _, _ = sd.SdNotify(false, sd.SdNotifyStopping) }()

	logger.Info("starting monitor",
		"bridge_url", cfg.Telegram.BridgeURL,
		"chats", len(targets),
		"pid_file", pf.Path(),
	)

	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("monitor error; %w", err)
	}

	return nil
}

// buildTargets maps the configured chat lists to registry targets.
func buildTargets(cfg *config.Config) []registry.Target {
	entries := cfg.Monitoring.All()
	targets := make([]registry.Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, registry.Target{
			ID:    chatid.Normalize(e.ID),
			RawID: e.ID,
			Title: e.Title,
			Kind:  telegram.ChatKind(e.Type),
		})
	}
	return targets
}

// engineConfig maps the advanced tunables to engine durations. Non-positive
// values fall through to engine defaults.
func engineConfig(cfg *config.Config) monitor.Config {
	t := cfg.Advanced.Monitoring
	return monitor.Config{
		StallThreshold:      time.Duration(t.StallSeconds) * time.Second,
		WatchdogInterval:    time.Duration(t.WatchdogIntervalSeconds) * time.Second,
		PollInterval:        time.Duration(t.PollIntervalSeconds) * time.Second,
		PollBatchLimit:      t.PollBatchLimit,
		MinResyncInterval:   time.Duration(t.MinResyncIntervalSeconds) * time.Second,
		ResyncTimeout:       time.Duration(t.ResyncTimeoutSeconds) * time.Second,
		HealthWriteInterval: time.Duration(t.HealthWriteIntervalSeconds) * time.Second,
		HealthFile:          config.ExpandPath(cfg.HealthFile),
	}
}

// notifyReady tells systemd the monitor is up once the engine reaches the
// running state. No-op outside a systemd unit.
func notifyReady(ctx context.Context, eng *monitor.Engine) {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				state := eng.State()
				if state == monitor.StateRunning {
					_, _ = sd.SdNotify(false, sd.SdNotifyReady)
					return
				}
				if state.IsTerminal() {
					return
				}
			}
		}
	}()
}
