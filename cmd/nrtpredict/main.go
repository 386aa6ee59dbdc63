package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nrt-labs/nrtpredict-go/internal/config"
	"github.com/nrt-labs/nrtpredict-go/internal/ledger"
	"github.com/nrt-labs/nrtpredict-go/internal/model"
	"github.com/nrt-labs/nrtpredict-go/internal/model/builtin"
	"github.com/nrt-labs/nrtpredict-go/internal/observation"
	"github.com/nrt-labs/nrtpredict-go/internal/pipeline"
	"github.com/nrt-labs/nrtpredict-go/internal/platform/env"
	"github.com/nrt-labs/nrtpredict-go/internal/platform/objectstore"
	"github.com/nrt-labs/nrtpredict-go/internal/raster/gdalio"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultFile, "configuration file path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(false)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("continuing without configuration file", "path", *configPath, "error", err)
	} else {
		logger.Info("loaded configuration", "path", *configPath)
	}
	if flag.NArg() > 0 {
		cfg.URL = flag.Arg(0)
	}
	cfg.Normalize()
	logger = newLogger(cfg.Quiet)

	rio := gdalio.New(cfg.DriverOptions())
	for k, v := range cfg.DriverOptions() {
		logger.Info("driver option", "key", k, "value", v)
	}

	if err := cfg.Validate(ctx, rio.HasDriver, rio.Probe); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 2
	}

	registry := model.NewRegistry()
	builtin.Register(registry, rio)

	storeCfg := objectstore.Config{Endpoint: env.String("NRTPREDICT_S3_ENDPOINT", "s3.amazonaws.com")}
	storeCfg.UseSSL, err = env.Bool("NRTPREDICT_S3_USE_SSL", true)
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		return 2
	}
	store, err := objectstore.New(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		return 2
	}

	modelResolver, err := model.NewResolver(registry, store, logger)
	if err != nil {
		logger.Error("model resolver init failed", "error", err)
		return 2
	}
	obsResolver, err := observation.NewResolver(rio, nil, logger, cfg.Product)
	if err != nil {
		logger.Error("observation resolver init failed", "error", err)
		return 2
	}

	var runLedger pipeline.Ledger
	if cfg.LedgerDSN != "" {
		pingTimeout, err := env.Duration("NRTPREDICT_LEDGER_PING_TIMEOUT", 2*time.Second)
		if err != nil {
			logger.Error("invalid ledger config", "error", err)
			return 2
		}
		led, err := ledger.Open(ctx, cfg.LedgerDSN, pingTimeout)
		if err != nil {
			logger.Error("ledger unavailable", "error", err)
			return 1
		}
		defer func() { _ = led.Close() }()
		runLedger = led
	}

	p, err := pipeline.New(rio, obsResolver, modelResolver, runLedger, logger, cfg)
	if err != nil {
		logger.Error("pipeline init failed", "error", err)
		return 2
	}

	if err := p.Run(ctx, cfg.URL); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "processing interrupted, exiting...")
			return 1
		}
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
