package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// levelNames maps config strings to slog levels.
var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel converts a config log level string to a slog.Level,
// case-insensitively. Returns (DefaultLevel, false) for unrecognized input.
func ParseLevel(s string) (slog.Level, bool) {
	level, ok := levelNames[strings.ToLower(s)]
	if !ok {
		return DefaultLevel, false
	}
	return level, true
}

// ParseLevelOrDefault is ParseLevel with unrecognized input silently mapped
// to DefaultLevel.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}
