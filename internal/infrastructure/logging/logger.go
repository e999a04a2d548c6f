package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Init()

	Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Debugf(template string, args ...any)

	Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Infof(template string, args ...any)

	Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Warnf(template string, args ...any)

	Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Errorf(template string, args ...any)

	Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Fatalf(template string, args ...any)
}

type LoggerConfig struct {
	FilePath   string `koanf:"file_path"`
	Encoding   string `koanf:"encoding"`
	Level      string `koanf:"level"`
	Logger     string `koanf:"logger"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

func NewLogger(cfg *LoggerConfig) Logger {
	var l Logger
	switch cfg.Logger {
	case "zap":
		l = newZapLogger(cfg)
	case "zerolog":
		l = newZeroLogger(cfg)
	default:
		panic("logger not supported: supported loggers: [zap, zerolog]")
	}

	l.Init()
	return l
}

// NewNop returns a logger that discards everything. Used by tests and by
// components constructed without a logger.
func NewNop() Logger {
	l := &zapLogger{cfg: &LoggerConfig{Level: "error", Encoding: "console"}, out: io.Discard}
	l.Init()
	return l
}

// writer picks the sink for cfg. The terminal belongs to the TUI, so an
// empty path or "-" means stderr and everything else is a rotated file.
func writer(cfg *LoggerConfig) io.Writer {
	if cfg.FilePath == "" || cfg.FilePath == "-" {
		return os.Stderr
	}

	_ = os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755)

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}
