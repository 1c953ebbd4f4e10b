// Package api provides the query API server command.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chatwatcher/internal/api"
	"github.com/leefowlercu/chatwatcher/internal/config"
	"github.com/leefowlercu/chatwatcher/internal/sink/redisink"
)

const shutdownTimeout = 10 * time.Second

// APICmd serves the query API in foreground mode.
var APICmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the message query API in foreground mode",
	Long: "Serve the message query API in foreground mode.\n\n" +
		"Exposes keyword search and recent-message queries over the indexed store, " +
		"plus health and Prometheus metrics endpoints. The API is read-only and can " +
		"run alongside the monitor or on its own.",
	Example: `  # Serve the query API
  chatwatcher api`,
	PreRunE: validateAPI,
	RunE:    runAPI,
}

func validateAPI(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

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
		return fmt.Errorf("failed to connect to search sink; %w", err)
	}
	defer store.Close()

	server := api.NewServer(store, api.ServerConfig{
		Host:       cfg.API.Host,
		Port:       cfg.API.Port,
		HealthFile: config.ExpandPath(cfg.HealthFile),
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server error; %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown error; %w", err)
	}
	return <-errCh
}
