package subcommands

import "github.com/leefowlercu/chatwatcher/internal/config"

// configPath returns the file the loaded config came from, falling back to
// the default location when running on defaults only.
func configPath() string {
	if path := config.LoadedFilePath(); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}
