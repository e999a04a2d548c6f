package settings_manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

type settingsManager struct {
	configPath string
	logger     logging.Logger
	cache      *UserConfig
	mu         sync.RWMutex
}

func NewSettingsManager(configPath string, logger logging.Logger) SettingsManager {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		logger.Warn(logging.UI, logging.Settings, "failed to create settings directory", map[logging.ExtraKey]any{
			logging.Path:         configPath,
			logging.ErrorMessage: err.Error(),
		})
	}

	return &settingsManager{
		configPath: configPath,
		logger:     logger,
	}
}

func (s *settingsManager) GetUserConfig() *UserConfig {
	s.mu.RLock()
	if s.cache != nil {
		defer s.mu.RUnlock()
		return s.cache
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.cache != nil {
		return s.cache
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn(logging.UI, logging.Settings, "failed to read settings", map[logging.ExtraKey]any{
				logging.Path:         s.configPath,
				logging.ErrorMessage: err.Error(),
			})
		}
		return DefaultUserConfig()
	}

	config := DefaultUserConfig()
	if err := json.Unmarshal(data, config); err != nil {
		s.logger.Warn(logging.UI, logging.Settings, "ignoring malformed settings", map[logging.ExtraKey]any{
			logging.Path:         s.configPath,
			logging.ErrorMessage: err.Error(),
		})
		s.cache = DefaultUserConfig()
		return s.cache
	}

	s.cache = config
	return config
}

func (s *settingsManager) SetUserConfig(config *UserConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(s.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()

	return nil
}
