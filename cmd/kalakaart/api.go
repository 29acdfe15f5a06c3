package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/pkg/artisans"
)

const shutdownTimeout = 5 * time.Second

type apiCmd struct {
	Addr    string `help:"Override api.addr."`
	Dataset string `type:"path" help:"CSV file to load instead of the configured candidates."`
}

func (cmd *apiCmd) Run(ctx context.Context, rt *runtime) error {
	cfg := rt.cfg
	if cmd.Addr != "" {
		cfg.API.Addr = cmd.Addr
	}
	logger := rt.logger.Named("api")

	dataset, err := loadDataset(cmd.Dataset, cfg.API.Datasets)
	if err != nil {
		// The API still answers health checks without data.
		logger.Warn("artisan dataset unavailable", zap.Error(err))
	} else {
		logger.Info("artisan dataset loaded",
			zap.String("source", dataset.Source()),
			zap.Int("records", dataset.Len()),
		)
	}

	handler := artisans.NewServer(artisans.ServerOptions{
		Dataset:           dataset,
		Logger:            logger,
		AllowedOrigins:    cfg.API.AllowedOrigins,
		ChatRatePerSecond: cfg.API.ChatRatePerSecond,
		ChatBurst:         cfg.API.ChatBurst,
	})
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("artisan api listening", zap.String("addr", cfg.API.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statsCmd struct {
	Raw     bool   `help:"Print the full dataset statistics instead of the dashboard figures."`
	Dataset string `type:"path" help:"CSV file to load instead of the configured candidates (with --raw)."`
	Compact bool   `help:"Emit a single line of JSON."`
}

// statsSummary is what the dashboard would show for one fetch.
type statsSummary struct {
	Source    string                        `json:"source"`
	Stats     dashboard.StatisticsViewModel `json:"stats"`
	Breakdown dashboard.StatisticsBreakdown `json:"breakdown"`
}

func (cmd *statsCmd) Run(ctx context.Context, rt *runtime) error {
	if cmd.Raw {
		dataset, err := loadDataset(cmd.Dataset, rt.cfg.API.Datasets)
		if err != nil {
			return err
		}
		return writeStatistics(os.Stdout, dataset, !cmd.Compact)
	}

	svc, source, err := statisticsSource(rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, rt.cfg.Statistics.Timeout)
	defer cancel()
	resp, err := svc.GetStatistics(fetchCtx)
	if err != nil {
		return fmt.Errorf("kalakaart: fetch statistics: %w", err)
	}
	return writeJSON(os.Stdout, statsSummary{
		Source:    source,
		Stats:     dashboard.MapStatistics(resp),
		Breakdown: dashboard.MapBreakdown(resp),
	}, !cmd.Compact)
}

func writeStatistics(out io.Writer, dataset *artisans.Dataset, indent bool) error {
	stats, err := dataset.Statistics()
	if err != nil {
		return err
	}
	return writeJSON(out, stats, indent)
}

func writeJSON(out io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("kalakaart: encode json: %w", err)
	}
	return nil
}

// loadDataset prefers an explicit path over the configured candidates.
func loadDataset(explicit string, candidates []string) (*artisans.Dataset, error) {
	if explicit != "" {
		return artisans.LoadFile(explicit)
	}
	return artisans.LoadFirst(candidates)
}
