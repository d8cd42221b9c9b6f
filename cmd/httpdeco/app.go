package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/config"
	"github.com/brizzai/httpdeco/internal/logger"
	"github.com/brizzai/httpdeco/internal/metrics"
	"github.com/brizzai/httpdeco/internal/parser"
	"github.com/brizzai/httpdeco/internal/requester"
	"github.com/brizzai/httpdeco/pkg/httpdeco"
	"github.com/brizzai/httpdeco/pkg/transport"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// loadConfig reads the configuration for cmd and initializes the global logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// appOptions wires the catalog service for cfg: HTTP transport, metrics, client, catalog source and
// the configured defaults.
func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg, &cfg.Endpoint),
		fx.Provide(
			func() *zap.Logger { return logger.GetLogger() },
			metrics.NewCollector,
			newClient,
			loadCatalog,
		),
		requester.Module,
		parser.Module,
		catalog.Module,
		fx.Invoke(applyDefaults),
	)
}

// newCatalogService builds the catalog service for cfg outside of a long-running app.
func newCatalogService(cfg *config.Config) (*catalog.Service, error) {
	var svc *catalog.Service
	app := fx.New(
		appOptions(cfg),
		fx.NopLogger,
		fx.Populate(&svc),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return svc, nil
}

func fxLogger(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
}

func newClient(t transport.Transport, collector *metrics.Collector) *httpdeco.Client {
	return httpdeco.New(
		httpdeco.WithTransport(t),
		httpdeco.WithMiddleware(collector.Middleware()),
		httpdeco.WithLogger(logger.Named("httpdeco")),
	)
}

// loadCatalog reads the catalog file, or derives a catalog from the swagger file when none is set.
func loadCatalog(cfg *config.Config, p parser.Parser) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.Load(cfg.CatalogFile)
	}
	if err := p.Init(cfg.SwaggerFile, cfg.SelectionFile); err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", cfg.SwaggerFile, err)
	}
	return p.Catalog(), nil
}

// applyDefaults merges the configured defaults over the catalog's own.
func applyDefaults(cfg *config.Config, svc *catalog.Service) {
	if len(cfg.Defaults) == 0 {
		return
	}
	svc.Client().SetDefaults(cfg.Defaults)
	logger.Debug("Applied configured defaults", zap.Int("keys", len(cfg.Defaults)))
}

// watchDefaults keeps the client defaults in sync with the config file when reload is enabled.
func watchDefaults(lc fx.Lifecycle, cfg *config.Config, svc *catalog.Service) {
	if !cfg.Reload.Enabled || cfg.File == "" {
		return
	}
	var closer io.Closer
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var err error
			debounce := time.Duration(cfg.Reload.DebounceMS) * time.Millisecond
			closer, err = config.WatchDefaults(cfg.File, svc.Client().Registry(), debounce, logger.Named("reload"))
			return err
		},
		OnStop: func(context.Context) error {
			return closer.Close()
		},
	})
}
