package configs

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/hilthontt/parley/internal/infrastructure/env"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/infrastructure/reporting"
	"github.com/hilthontt/parley/internal/infrastructure/tracing"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const AppName = "parley"

type Config struct {
	API      APIConfig            `koanf:"api"`
	Realtime RealtimeConfig       `koanf:"realtime"`
	Chat     ChatConfig           `koanf:"chat"`
	Cache    CacheConfig          `koanf:"cache"`
	Session  SessionConfig        `koanf:"session"`
	Logger   logging.LoggerConfig `koanf:"logger"`
	Tracing  tracing.Config       `koanf:"tracing"`
	Sentry   reporting.Config     `koanf:"sentry"`
}

type APIConfig struct {
	BaseURL        string        `koanf:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	Debug          bool          `koanf:"debug"`
}

type RealtimeConfig struct {
	// URL overrides the endpoint derived from api.base_url.
	URL               string        `koanf:"url"`
	Path              string        `koanf:"path"`
	ReconnectAttempts int           `koanf:"reconnect_attempts"`
	ReconnectDelay    time.Duration `koanf:"reconnect_delay"`
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`
	EmitRatePerSecond float64       `koanf:"emit_rate_per_second"`
	EmitBurst         int           `koanf:"emit_burst"`
}

type ChatConfig struct {
	PageSize           int           `koanf:"page_size"`
	TypingExpiry       time.Duration `koanf:"typing_expiry"`
	TypingIdle         time.Duration `koanf:"typing_idle"`
	AutoScroll         string        `koanf:"auto_scroll"`
	MaxAttachmentBytes int64         `koanf:"max_attachment_bytes"`
	MaxAvatarBytes     int64         `koanf:"max_avatar_bytes"`
}

type CacheConfig struct {
	TTL      time.Duration `koanf:"ttl"`
	MaxItems int           `koanf:"max_items"`
}

type SessionConfig struct {
	TokenFile string `koanf:"token_file"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// API defaults
	setDefault(k, "api.base_url", "http://localhost:5001/api")
	setDefault(k, "api.request_timeout", 15*time.Second)
	setDefault(k, "api.debug", false)

	// Realtime defaults
	setDefault(k, "realtime.url", "")
	setDefault(k, "realtime.path", "/ws")
	setDefault(k, "realtime.reconnect_attempts", 5)
	setDefault(k, "realtime.reconnect_delay", time.Second)
	setDefault(k, "realtime.handshake_timeout", 10*time.Second)
	setDefault(k, "realtime.emit_rate_per_second", 20.0)
	setDefault(k, "realtime.emit_burst", 10)

	// Chat defaults
	setDefault(k, "chat.page_size", 15)
	setDefault(k, "chat.typing_expiry", 3*time.Second)
	setDefault(k, "chat.typing_idle", 2*time.Second)
	setDefault(k, "chat.auto_scroll", "sticky")
	setDefault(k, "chat.max_attachment_bytes", int64(10*1024*1024))
	setDefault(k, "chat.max_avatar_bytes", int64(5*1024*1024))

	// Cache defaults
	setDefault(k, "cache.ttl", time.Minute)
	setDefault(k, "cache.max_items", 256)

	// Session defaults
	setDefault(k, "session.token_file", filepath.Join(xdg.DataHome, AppName, "token"))

	// Logger defaults
	setDefault(k, "logger.file_path", filepath.Join(xdg.StateHome, AppName, "parley.log"))
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.logger", "zap")
	setDefault(k, "logger.max_size_mb", 10)
	setDefault(k, "logger.max_backups", 3)
	setDefault(k, "logger.max_age_days", 14)

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.service_name", AppName)
	setDefault(k, "tracing.environment", "development")
	setDefault(k, "tracing.endpoint", "http://localhost:4318/v1/traces")
	setDefault(k, "tracing.sample_ratio", 1.0)

	// Sentry defaults
	setDefault(k, "sentry.environment", "development")
	setDefault(k, "sentry.sample_rate", 1.0)
}

func applyEnvOverrides(k *koanf.Koanf) {
	// One variable selects the backend host for both REST and realtime.
	if baseURL := env.GetString("PARLEY_API_BASE_URL", ""); baseURL != "" {
		k.Set("api.base_url", baseURL)
	}
	if timeout := env.GetInt("PARLEY_API_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("api.request_timeout", time.Duration(timeout)*time.Second)
	}
	if debug := env.GetBool("PARLEY_API_DEBUG", false); debug {
		k.Set("api.debug", true)
	}

	if wsURL := env.GetString("PARLEY_REALTIME_URL", ""); wsURL != "" {
		k.Set("realtime.url", wsURL)
	}
	if attempts := env.GetInt("PARLEY_REALTIME_RECONNECT_ATTEMPTS", 0); attempts > 0 {
		k.Set("realtime.reconnect_attempts", attempts)
	}
	if delay := env.GetDuration("PARLEY_REALTIME_RECONNECT_DELAY", 0); delay > 0 {
		k.Set("realtime.reconnect_delay", delay)
	}

	if scroll := env.GetString("PARLEY_CHAT_AUTO_SCROLL", ""); scroll != "" {
		k.Set("chat.auto_scroll", scroll)
	}

	if tokenFile := env.GetString("PARLEY_TOKEN_FILE", ""); tokenFile != "" {
		k.Set("session.token_file", tokenFile)
	}

	if path := env.GetString("PARLEY_LOGGER_FILE_PATH", ""); path != "" {
		k.Set("logger.file_path", path)
	}
	if level := env.GetString("PARLEY_LOGGER_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if backend := env.GetString("PARLEY_LOGGER_LOGGER", ""); backend != "" {
		k.Set("logger.logger", backend)
	}

	if enabled := env.GetBool("PARLEY_TRACING_ENABLED", false); enabled {
		k.Set("tracing.enabled", true)
	}
	if endpoint := env.GetString("PARLEY_OTLP_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}

	if dsn := env.GetString("PARLEY_SENTRY_DSN", ""); dsn != "" {
		k.Set("sentry.dsn", dsn)
	}
	if environment := env.GetString("PARLEY_ENVIRONMENT", ""); environment != "" {
		k.Set("tracing.environment", environment)
		k.Set("sentry.environment", environment)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
