package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	apicmd "github.com/leefowlercu/chatwatcher/cmd/api"
	chatscmd "github.com/leefowlercu/chatwatcher/cmd/chats"
	configcmd "github.com/leefowlercu/chatwatcher/cmd/config"
	logincmd "github.com/leefowlercu/chatwatcher/cmd/login"
	startcmd "github.com/leefowlercu/chatwatcher/cmd/start"
	versioncmd "github.com/leefowlercu/chatwatcher/cmd/version"
	"github.com/leefowlercu/chatwatcher/internal/config"
	"github.com/leefowlercu/chatwatcher/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var chatwatcherCmd = &cobra.Command{
	Use:   "chatwatcher",
	Short: "A Telegram Chat Monitoring and Search Tool",
	Long: "Chatwatcher monitors a configured set of Telegram groups and channels and indexes " +
		"every message into a searchable store.\n\n" +
		"A foreground monitor ingests messages over two paths: a live event stream for " +
		"immediate delivery and a periodic history poll that backfills anything the stream " +
		"missed. A watchdog detects silent stream death and forces a reconnect. Indexed " +
		"messages are queryable through a local HTTP API.\n\n",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()

	chatwatcherCmd.AddCommand(startcmd.StartCmd)
	chatwatcherCmd.AddCommand(chatscmd.ChatsCmd)
	chatwatcherCmd.AddCommand(logincmd.LoginCmd)
	chatwatcherCmd.AddCommand(apicmd.APICmd)
	chatwatcherCmd.AddCommand(configcmd.ConfigCmd)
	chatwatcherCmd.AddCommand(versioncmd.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	// Initialize config subsystem
	if err := config.Init(); err != nil {
		return err
	}

	// Upgrade logging after config is available
	cfg := config.Get()
	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
		if cfg.LogLevel != "" {
			logger.Warn("invalid log level configured, using default", "configured", cfg.LogLevel, "default", "info")
		}
	}

	if err := logManager.Upgrade(config.ExpandPath(cfg.LogFile), level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
		// Don't return error - continue with bootstrap mode
	}

	// Subcommands log through the default logger
	slog.SetDefault(logManager.Logger())

	return nil
}

func Execute() error {
	chatwatcherCmd.SilenceErrors = true
	chatwatcherCmd.SilenceUsage = true

	// Ensure logging is properly closed on exit
	defer func() { _ = logManager.Close() }()

	err := chatwatcherCmd.Execute()

	if err != nil {
		cmd, _, _ := chatwatcherCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = chatwatcherCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
