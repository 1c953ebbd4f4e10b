package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultLogFile    = "~/.config/chatwatcher/chatwatcher.log"
	DefaultHealthFile = "~/.config/chatwatcher/health.json"

	DefaultTelegramSession    = "chatwatcher"
	DefaultTelegramBridgeURL  = "ws://127.0.0.1:8585/ws"
	DefaultTelegramAPIHashEnv = "TELEGRAM_API_HASH"

	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisPasswordEnv = "REDIS_PASSWORD"
	DefaultRedisNamespace   = "chatwatcher"

	DefaultAPIHost = "127.0.0.1"
	DefaultAPIPort = 8000

	// Engine timing tunables, in seconds.
	DefaultStallSeconds               = 1800
	DefaultWatchdogIntervalSeconds    = 60
	DefaultPollIntervalSeconds        = 300
	DefaultPollBatchLimit             = 200
	DefaultMinResyncIntervalSeconds   = 300
	DefaultResyncTimeoutSeconds       = 30
	DefaultHealthWriteIntervalSeconds = 60
)

// setViperDefaults registers all default configuration values with a viper
// instance.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("health_file", DefaultHealthFile)

	v.SetDefault("telegram.session", DefaultTelegramSession)
	v.SetDefault("telegram.bridge_url", DefaultTelegramBridgeURL)
	v.SetDefault("telegram.api_hash_env", DefaultTelegramAPIHashEnv)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password_env", DefaultRedisPasswordEnv)
	v.SetDefault("redis.namespace", DefaultRedisNamespace)

	v.SetDefault("api.host", DefaultAPIHost)
	v.SetDefault("api.port", DefaultAPIPort)

	v.SetDefault("advanced.monitoring.stall_seconds", DefaultStallSeconds)
	v.SetDefault("advanced.monitoring.watchdog_interval_seconds", DefaultWatchdogIntervalSeconds)
	v.SetDefault("advanced.monitoring.poll_interval_seconds", DefaultPollIntervalSeconds)
	v.SetDefault("advanced.monitoring.poll_batch_limit", DefaultPollBatchLimit)
	v.SetDefault("advanced.monitoring.min_resync_interval_seconds", DefaultMinResyncIntervalSeconds)
	v.SetDefault("advanced.monitoring.resync_timeout_seconds", DefaultResyncTimeoutSeconds)
	v.SetDefault("advanced.monitoring.health_write_interval_seconds", DefaultHealthWriteIntervalSeconds)
}

// NewDefaultConfig returns a Config populated with all default values and an
// empty monitoring list.
func NewDefaultConfig() Config {
	return Config{
		LogLevel:   DefaultLogLevel,
		LogFile:    DefaultLogFile,
		HealthFile: DefaultHealthFile,
		Telegram: TelegramConfig{
			Session:    DefaultTelegramSession,
			BridgeURL:  DefaultTelegramBridgeURL,
			APIHashEnv: DefaultTelegramAPIHashEnv,
		},
		Redis: RedisConfig{
			Addr:        DefaultRedisAddr,
			PasswordEnv: DefaultRedisPasswordEnv,
			Namespace:   DefaultRedisNamespace,
		},
		API: APIConfig{
			Host: DefaultAPIHost,
			Port: DefaultAPIPort,
		},
		Advanced: AdvancedConfig{
			Monitoring: MonitorTuning{
				StallSeconds:               DefaultStallSeconds,
				WatchdogIntervalSeconds:    DefaultWatchdogIntervalSeconds,
				PollIntervalSeconds:        DefaultPollIntervalSeconds,
				PollBatchLimit:             DefaultPollBatchLimit,
				MinResyncIntervalSeconds:   DefaultMinResyncIntervalSeconds,
				ResyncTimeoutSeconds:       DefaultResyncTimeoutSeconds,
				HealthWriteIntervalSeconds: DefaultHealthWriteIntervalSeconds,
			},
		},
	}
}
