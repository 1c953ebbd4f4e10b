// Package config loads, validates, and writes the chatwatcher YAML
// configuration. Values resolve in priority order: environment variables
// with the CHATWATCHER_ prefix, then the config file, then defaults.
package config

import "os"

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel   string           `yaml:"log_level" mapstructure:"log_level"`
	LogFile    string           `yaml:"log_file" mapstructure:"log_file"`
	HealthFile string           `yaml:"health_file" mapstructure:"health_file"`
	Telegram   TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	API        APIConfig        `yaml:"api" mapstructure:"api"`
	Advanced   AdvancedConfig   `yaml:"advanced" mapstructure:"advanced"`
}

// TelegramConfig holds upstream session configuration. The MTProto session
// itself is owned by the external bridge process; chatwatcher only needs to
// reach the bridge and identify the session.
type TelegramConfig struct {
	APIID      int     `yaml:"api_id" mapstructure:"api_id"`
	APIHash    *string `yaml:"api_hash,omitempty" mapstructure:"api_hash"`
	APIHashEnv string  `yaml:"api_hash_env" mapstructure:"api_hash_env"`
	Phone      string  `yaml:"phone" mapstructure:"phone"`
	Session    string  `yaml:"session" mapstructure:"session"`
	BridgeURL  string  `yaml:"bridge_url" mapstructure:"bridge_url"`
}

// ResolveAPIHash returns the API hash from config or falls back to the
// configured environment variable.
func (c *TelegramConfig) ResolveAPIHash() string {
	if c.APIHash != nil && *c.APIHash != "" {
		return *c.APIHash
	}
	return os.Getenv(c.APIHashEnv)
}

// ChatEntry is one monitored chat as declared in the config file. ID is the
// raw identifier as pasted from the chat picker or an invite link.
type ChatEntry struct {
	ID    int64  `yaml:"id" mapstructure:"id"`
	Title string `yaml:"title" mapstructure:"title"`
	Type  string `yaml:"type" mapstructure:"type"`
}

// MonitoringConfig holds the monitored chat lists.
type MonitoringConfig struct {
	Groups   []ChatEntry `yaml:"groups,omitempty" mapstructure:"groups"`
	Channels []ChatEntry `yaml:"channels,omitempty" mapstructure:"channels"`
}

// All returns groups and channels as a single list.
func (c *MonitoringConfig) All() []ChatEntry {
	out := make([]ChatEntry, 0, len(c.Groups)+len(c.Channels))
	out = append(out, c.Groups...)
	out = append(out, c.Channels...)
	return out
}

// RedisConfig holds the search sink connection configuration.
type RedisConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	Username    string `yaml:"username,omitempty" mapstructure:"username"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
	DB          int    `yaml:"db" mapstructure:"db"`
	Namespace   string `yaml:"namespace" mapstructure:"namespace"`
}

// APIConfig holds the query API server configuration.
type APIConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// AdvancedConfig holds tunables most deployments never touch.
type AdvancedConfig struct {
	Monitoring MonitorTuning `yaml:"monitoring" mapstructure:"monitoring"`
}

// MonitorTuning holds the engine timing tunables, all in seconds except the
// batch limit. Non-positive values fall back to engine defaults at startup.
type MonitorTuning struct {
	StallSeconds               int `yaml:"stall_seconds" mapstructure:"stall_seconds"`
	WatchdogIntervalSeconds    int `yaml:"watchdog_interval_seconds" mapstructure:"watchdog_interval_seconds"`
	PollIntervalSeconds        int `yaml:"poll_interval_seconds" mapstructure:"poll_interval_seconds"`
	PollBatchLimit             int `yaml:"poll_batch_limit" mapstructure:"poll_batch_limit"`
	MinResyncIntervalSeconds   int `yaml:"min_resync_interval_seconds" mapstructure:"min_resync_interval_seconds"`
	ResyncTimeoutSeconds       int `yaml:"resync_timeout_seconds" mapstructure:"resync_timeout_seconds"`
	HealthWriteIntervalSeconds int `yaml:"health_write_interval_seconds" mapstructure:"health_write_interval_seconds"`
}
