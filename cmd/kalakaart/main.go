package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/goliatone/go-kalakaart/internal/config"
	"github.com/goliatone/go-kalakaart/internal/logging"
)

type cli struct {
	Config string `type:"path" default:"kalakaart.yaml" env:"KALAKAART_CONFIG" help:"Path to the YAML configuration file."`

	Serve        serveCmd        `cmd:"" default:"1" help:"Serve the dashboard view."`
	API          apiCmd          `cmd:"" name:"api" help:"Serve the artisan data API."`
	Stats        statsCmd        `cmd:"" help:"Print dataset statistics as JSON."`
	Translations translationsCmd `cmd:"" help:"Inspect the translation table."`
}

// runtime carries what every subcommand needs after flag parsing.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	app := &cli{}
	ctx := kong.Parse(app,
		kong.Name("kalakaart"),
		kong.Description("Kala-Kaart artisan dashboard and data service."),
		kong.UsageOnError(),
	)

	rt, err := app.runtime()
	ctx.FatalIfErrorf(err)
	defer func() { _ = rt.logger.Sync() }()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.BindTo(runCtx, (*context.Context)(nil))
	err = ctx.Run(rt)
	ctx.FatalIfErrorf(err)
}

func (c *cli) runtime() (*runtime, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger}, nil
}
