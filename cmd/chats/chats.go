// Package chats provides the interactive chat selection command.
package chats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leefowlercu/chatwatcher/internal/config"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
	"github.com/leefowlercu/chatwatcher/internal/telegram/bridge"
	chatstui "github.com/leefowlercu/chatwatcher/internal/tui/chats"
)

const dialogTimeout = 30 * time.Second

// ChatsCmd lists available dialogs and lets the user pick which to monitor.
var ChatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Select which chats to monitor",
	Long: "Select which chats to monitor.\n\n" +
		"Lists the groups, supergroups, and channels visible to the configured Telegram " +
		"session and presents an interactive picker. The selection is written back to the " +
		"config file; a running monitor picks it up on restart.",
	Example: `  # Pick monitored chats interactively
  chatwatcher chats`,
	PreRunE: validateChats,
	RunE:    runChats,
}

func validateChats(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runChats(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	ctx, cancel := context.WithTimeout(cmd.Context(), dialogTimeout)
	defer cancel()

	client := bridge.New(cfg.Telegram.BridgeURL, cfg.Telegram.Session, bridge.WithLogger(logger))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to telegram bridge at %s; %w", cfg.Telegram.BridgeURL, err)
	}
	defer client.Close()

	dialogs, err := client.ListDialogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list dialogs; %w", err)
	}

	// Private chats and bots are not monitorable.
	monitorable := dialogs[:0]
	for _, d := range dialogs {
		if d.Kind.IsValid() {
			monitorable = append(monitorable, d)
		}
	}
	if len(monitorable) == 0 {
		fmt.Println("No groups or channels visible to this session.")
		return nil
	}

	preselected := make(map[int64]bool)
	for _, e := range cfg.Monitoring.All() {
		preselected[e.ID] = true
	}

	p := tea.NewProgram(chatstui.New(monitorable, preselected))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat picker failed; %w", err)
	}

	model, ok := finalModel.(chatstui.Model)
	if !ok || !model.Confirmed() {
		fmt.Println("Selection cancelled; config unchanged.")
		return nil
	}

	selected := model.Selected()
	applySelection(cfg, selected)

	path := config.LoadedFilePath()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Write(cfg, path); err != nil {
		return fmt.Errorf("failed to write config; %w", err)
	}

	fmt.Printf("Monitoring %d chats (%s). Restart the monitor to apply.\n", len(selected), path)
	return nil
}

// applySelection rewrites the monitoring lists from the picker result.
// Groups and supergroups share a list; channels get their own.
func applySelection(cfg *config.Config, selected []telegram.RawChat) {
	cfg.Monitoring.Groups = cfg.Monitoring.Groups[:0]
	cfg.Monitoring.Channels = cfg.Monitoring.Channels[:0]

	for _, chat := range selected {
		entry := config.ChatEntry{
			ID:    chat.ID,
			Title: chat.Title,
			Type:  string(chat.Kind),
		}
		if chat.Kind == telegram.ChatKindChannel {
			cfg.Monitoring.Channels = append(cfg.Monitoring.Channels, entry)
		} else {
			cfg.Monitoring.Groups = append(cfg.Monitoring.Groups, entry)
		}
	}
}
