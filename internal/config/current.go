package config

import (
	"errors"
	"sync"
)

var (
	currentMu sync.RWMutex
	current   *Config
)

// Init loads the configuration and makes it available through Get. It is
// called once from the root command before any subcommand runs.
func Init() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()
	return nil
}

// Get returns the loaded configuration. It panics if Init has not been
// called; commands always run behind the root initializer.
func Get() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()

	if current == nil {
		panic(errors.New("config.Get called before config.Init"))
	}
	return current
}
