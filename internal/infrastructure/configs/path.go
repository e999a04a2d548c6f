package configs

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/hilthontt/parley/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag value,
// then PARLEY_CONFIG, then well-known locations. The client runs on defaults
// alone, so an empty result is not an error.
func DetermineConfigPath(flagValue string) string {
	configPath := flagValue

	if configPath == "" {
		configPath = env.GetString("PARLEY_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
			"/etc/parley/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
