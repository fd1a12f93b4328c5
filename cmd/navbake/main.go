// Package main is the entry point for navbake, which samples a terrain
// scene into a navigation grid and runs path queries against it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-nav/internal/config"
	"github.com/Faultbox/midgard-nav/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== navbake ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if cfg.Terrain.Scene == "" {
		logger.Error("no terrain scene configured, set terrain.scene or pass -scene")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("navbake failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("navbake finished")
}

func run(ctx context.Context, cfg *config.Config) error {
	b, err := newBaker(ctx, cfg, logger.Log)
	if err != nil {
		return err
	}
	if err := b.report(ctx); err != nil {
		return err
	}
	if !cfg.Terrain.Watch {
		return nil
	}
	return b.watch(ctx)
}
