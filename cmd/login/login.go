// Package login provides the session verification command.
package login

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chatwatcher/internal/config"
	"github.com/leefowlercu/chatwatcher/internal/telegram/bridge"
)

const loginTimeout = 15 * time.Second

// LoginCmd verifies the Telegram bridge connection and session.
var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify the Telegram bridge connection and session",
	Long: "Verify the Telegram bridge connection and session.\n\n" +
		"The MTProto session itself is owned by the bridge process; interactive " +
		"authorization (phone code, 2FA password) happens there. This command confirms " +
		"that the bridge is reachable at the configured URL and that the named session " +
		"is authorized, so the monitor can be started.",
	Example: `  # Verify bridge and session
  chatwatcher login`,
	PreRunE: validateLogin,
	RunE:    runLogin,
}

func validateLogin(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	if cfg.Telegram.ResolveAPIHash() == "" {
		logger.Warn("no API hash configured; the bridge must carry its own credentials",
			"api_hash_env", cfg.Telegram.APIHashEnv)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	client := bridge.New(cfg.Telegram.BridgeURL, cfg.Telegram.Session, bridge.WithLogger(logger))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to telegram bridge at %s; %w", cfg.Telegram.BridgeURL, err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("bridge reachable but session %q is not usable; %w", cfg.Telegram.Session, err)
	}

	fmt.Printf("Session %q authorized via bridge at %s.\n", cfg.Telegram.Session, cfg.Telegram.BridgeURL)
	return nil
}
