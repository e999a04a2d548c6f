package reporting

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hilthontt/parley/internal/infrastructure/env"
)

type Config struct {
	DSN         string  `koanf:"dsn"`
	Environment string  `koanf:"environment"`
	Release     string  `koanf:"release"`
	SampleRate  float64 `koanf:"sample_rate"`
	Debug       bool    `koanf:"debug"`
}

func NewDefaultConfig() Config {
	return Config{
		DSN:         env.GetString("PARLEY_SENTRY_DSN", ""),
		Environment: env.GetString("PARLEY_ENVIRONMENT", "development"),
		SampleRate:  1.0,
	}
}

type FlushFunc = func()

// Init configures the sentry client. Without a DSN it does nothing and every
// reporting call below becomes a no-op.
func Init(cfg Config) (FlushFunc, error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// Recover reports a recovered panic and flushes before re-panicking, so the
// terminal is restored by the caller's deferred cleanup.
func Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}
