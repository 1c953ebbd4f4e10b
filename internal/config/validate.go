package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validLogLevels lists recognized log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validChatTypes lists recognized monitored chat types.
var validChatTypes = map[string]bool{
	"group":      true,
	"supergroup": true,
	"channel":    true,
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error; got %q", cfg.LogLevel),
		})
	}

	if cfg.Telegram.BridgeURL == "" {
		errs = append(errs, ValidationError{
			Field:   "telegram.bridge_url",
			Message: "must not be empty",
		})
	} else if u, err := url.Parse(cfg.Telegram.BridgeURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		errs = append(errs, ValidationError{
			Field:   "telegram.bridge_url",
			Message: fmt.Sprintf("must be a ws:// or wss:// URL, got %q", cfg.Telegram.BridgeURL),
		})
	}

	if cfg.Telegram.Session == "" {
		errs = append(errs, ValidationError{
			Field:   "telegram.session",
			Message: "must not be empty",
		})
	}

	for i, chat := range cfg.Monitoring.Groups {
		errs = append(errs, validateChatEntry(fmt.Sprintf("monitoring.groups[%d]", i), chat)...)
	}
	for i, chat := range cfg.Monitoring.Channels {
		errs = append(errs, validateChatEntry(fmt.Sprintf("monitoring.channels[%d]", i), chat)...)
	}

	if cfg.Redis.Addr == "" {
		errs = append(errs, ValidationError{
			Field:   "redis.addr",
			Message: "must not be empty",
		})
	}

	if cfg.Redis.DB < 0 {
		errs = append(errs, ValidationError{
			Field:   "redis.db",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Redis.DB),
		})
	}

	if cfg.Redis.Namespace == "" {
		errs = append(errs, ValidationError{
			Field:   "redis.namespace",
			Message: "must not be empty",
		})
	}

	if cfg.API.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.host",
			Message: "must not be empty",
		})
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "api.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", cfg.API.Port),
		})
	}

	if cfg.HealthFile == "" {
		errs = append(errs, ValidationError{
			Field:   "health_file",
			Message: "must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateChatEntry(field string, chat ChatEntry) ValidationErrors {
	var errs ValidationErrors

	if chat.ID == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".id",
			Message: "must not be zero",
		})
	}

	if chat.Type != "" && !validChatTypes[chat.Type] {
		errs = append(errs, ValidationError{
			Field:   field + ".type",
			Message: fmt.Sprintf("must be one of: group, supergroup, channel; got %q", chat.Type),
		})
	}

	return errs
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
