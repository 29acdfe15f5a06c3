package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/components/dashboard/gorouter"
	"github.com/goliatone/go-kalakaart/components/dashboard/httpapi"
	"github.com/goliatone/go-kalakaart/components/dashboard/queries"
	"github.com/goliatone/go-kalakaart/internal/config"
	"github.com/goliatone/go-kalakaart/pkg/analytics"
	"github.com/goliatone/go-kalakaart/pkg/artisans"
)

type serveCmd struct {
	Addr string `help:"Override server.addr."`
}

func (cmd *serveCmd) Run(ctx context.Context, rt *runtime) error {
	cfg := rt.cfg
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	logger := rt.logger.Named("dashboard")

	service, hook, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("kalakaart: template renderer: %w", err)
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
	})
	telemetry := dashboard.NewZapTelemetry(logger)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:       server.Router(),
		Controller:   controller,
		API:          httpapi.NewCommandExecutor(service, telemetry),
		State:        queries.NewViewStateQuery(service),
		Broadcast:    hook,
		Translations: service.Translations(),
		BasePath:     cfg.Server.BasePath,
	}); err != nil {
		return fmt.Errorf("kalakaart: register routes: %w", err)
	}

	go service.RunSweeper(ctx, cfg.Sessions.SweepInterval)

	logger.Info("dashboard listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_path", cfg.Server.BasePath),
	)
	return serveUntilDone(ctx, server, cfg.Server.Addr, logger)
}

// listener is the part of the router adapter the serve loop drives.
type listener interface {
	Serve(address string) error
	Shutdown(ctx context.Context) error
}

// serveUntilDone serves until the listener fails or ctx ends, then shuts the
// listener down within shutdownTimeout.
func serveUntilDone(ctx context.Context, srv listener, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("dashboard shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildService wires the dashboard service from configuration.
func buildService(cfg *config.Config, logger *zap.Logger) (*dashboard.Service, *dashboard.BroadcastHook, error) {
	table, err := dashboard.NewEmbeddedTranslationTable(cfg.Locale.Default)
	if err != nil {
		return nil, nil, fmt.Errorf("kalakaart: translations: %w", err)
	}
	stats, source, err := statisticsSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("statistics source selected", zap.String("source", source))

	hook := dashboard.NewBroadcastHook()
	charts := dashboard.NewChartCache(cfg.Charts.CacheTTL)
	service, err := dashboard.NewService(dashboard.Options{
		Translations:      table,
		Statistics:        stats,
		StatisticsTimeout: cfg.Statistics.Timeout,
		Assistant: dashboard.EmbeddedAssistant{
			ChatEndpoint: cfg.Assistant.ChatEndpoint,
			Title:        cfg.Assistant.Title,
		},
		Charts: dashboard.NewEChartsRenderer(
			dashboard.WithChartTheme(cfg.Charts.Theme),
			dashboard.WithChartAssetsHost(cfg.Charts.AssetsHost),
			dashboard.WithChartCache(charts),
		),
		ChartCache:  charts,
		Sessions:    dashboard.NewInMemorySessionStore(cfg.Sessions.IdleTTL),
		RefreshHook: hook,
		Telemetry:   dashboard.NewZapTelemetry(logger),
		Logger:      logger,
		Overlay: dashboard.OverlayOptions{
			ExitDelay:  cfg.Overlay.ExitDelay,
			EnterDelay: cfg.Overlay.EnterDelay,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return service, hook, nil
}

// statisticsSource picks the remote API when a base URL is configured, then
// a local dataset, then the demo data.
func statisticsSource(cfg *config.Config, logger *zap.Logger) (dashboard.StatisticsService, string, error) {
	if cfg.Statistics.BaseURL != "" {
		client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
			BaseURL:    cfg.Statistics.BaseURL,
			APIKey:     cfg.Statistics.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.Statistics.Timeout},
		})
		if err != nil {
			return nil, "", err
		}
		return analytics.NewStatisticsService(client, logger), "remote:" + cfg.Statistics.BaseURL, nil
	}

	dataset, err := artisans.LoadFirst(cfg.API.Datasets)
	switch {
	case err == nil:
		return artisans.StatisticsSource{Dataset: dataset}, "dataset:" + dataset.Source(), nil
	case errors.Is(err, artisans.ErrDatasetNotFound):
		logger.Warn("no artisan dataset found, serving demo statistics",
			zap.Strings("paths", cfg.API.Datasets),
		)
		demo := analytics.NewMockClient(analytics.DemoData())
		return analytics.NewStatisticsService(demo, logger), "demo", nil
	default:
		return nil, "", fmt.Errorf("kalakaart: load dataset: %w", err)
	}
}
