package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/hilthontt/parley/cli/config"
	"github.com/hilthontt/parley/cli/pkg/generator"
	"github.com/hilthontt/parley/cli/pkg/settings_manager"
	"github.com/hilthontt/parley/cli/pkg/tui"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/configs"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/infrastructure/reporting"
	"github.com/hilthontt/parley/internal/infrastructure/tracing"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/session"
	"github.com/spf13/pflag"
)

func main() {
	configFlag := pflag.StringP("config", "c", "", "path to the config file")
	baseURL := pflag.String("api", "", "API base URL, overrides the config file")
	version := pflag.BoolP("version", "v", false, "print the version and exit")
	pflag.Parse()

	if *version {
		fmt.Println("parley", config.CurrentVersion)
		return
	}

	cfg, err := configs.Load(configs.DetermineConfigPath(*configFlag))
	if err != nil {
		log.Fatal(err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}

	logger := logging.NewLogger(&cfg.Logger)

	shutdownTracer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Warn(logging.General, logging.ExternalService, "tracing disabled", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	flush, err := reporting.Init(cfg.Sentry)
	if err != nil {
		logger.Warn(logging.General, logging.ExternalService, "error reporting disabled", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	if flush != nil {
		defer flush()
	}
	defer reporting.Recover()

	if err := run(cfg, logger); err != nil {
		logger.Error(logging.General, logging.Shutdown, "parley exited with an error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		reporting.CaptureError(err)
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownTracer != nil {
		_ = shutdownTracer(ctx)
	}
}

func run(cfg *configs.Config, logger logging.Logger) error {
	logger.Info(logging.General, logging.Startup, "starting parley", map[logging.ExtraKey]any{
		logging.AppName: configs.AppName,
		logging.Path:    cfg.API.BaseURL,
	})

	store := session.NewStore(session.NewFileTokenStore(cfg.Session.TokenFile), logger)
	store.Restore(time.Now())

	cache := querycache.New(querycache.Options{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        cfg.Cache.MaxItems,
		EvictionPolicy:  querycache.LRU,
	})
	defer cache.Close()

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.API.BaseURL),
		option.WithHTTPClient(tracing.HTTPClient(&http.Client{})),
		option.WithRequestTimeout(cfg.API.RequestTimeout),
	}
	if cfg.API.Debug {
		opts = append(opts, option.WithDebugLog(logger.Debugf))
	}

	api := client.New(store, cache, logger, client.Limits{
		PageSize:           cfg.Chat.PageSize,
		MaxAttachmentBytes: cfg.Chat.MaxAttachmentBytes,
		MaxAvatarBytes:     cfg.Chat.MaxAvatarBytes,
	}, opts...)

	endpoint, err := realtimeEndpoint(cfg)
	if err != nil {
		return err
	}

	socket := realtime.NewSocket(api.SDK().Realtime, realtime.Config{
		Endpoint:          endpoint,
		ReconnectAttempts: cfg.Realtime.ReconnectAttempts,
		ReconnectDelay:    cfg.Realtime.ReconnectDelay,
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		EmitRatePerSecond: cfg.Realtime.EmitRatePerSecond,
		EmitBurst:         cfg.Realtime.EmitBurst,
	}, logger)

	lifecycle := realtime.NewLifecycle(store, socket, logger)
	lifecycle.Start()
	defer lifecycle.Stop()

	navigator := tui.NewNavigator()

	model, err := tui.NewModel(lipgloss.DefaultRenderer(), tui.Deps{
		Client:    api,
		Source:    socket,
		Rooms:     realtime.NewRoomSubscriptions(socket, logger),
		Lifecycle: lifecycle,
		Navigator: navigator,
		Settings:  settings_manager.NewSettingsManager(config.SettingsFile, logger),
		Names:     generator.NewGenerator(),
		Chat:      cfg.Chat,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	navigator.Bind(p)
	api.SetNavigator(navigator)

	_, err = p.Run()

	logger.Info(logging.General, logging.Shutdown, "parley stopped", nil)
	return err
}

// realtimeEndpoint prefers realtime.url and otherwise derives the websocket
// address from the API base.
func realtimeEndpoint(cfg *configs.Config) (*url.URL, error) {
	if cfg.Realtime.URL != "" {
		return apisdk.RealtimeURL(cfg.Realtime.URL, "")
	}
	return apisdk.RealtimeURL(cfg.API.BaseURL, cfg.Realtime.Path)
}
