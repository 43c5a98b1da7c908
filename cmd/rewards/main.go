// Package main provides the reward scanner command line entry point.
//
// Usage: rewards <account-address> <year>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/reward-scanner/internal/adapter"
	"github.com/reward-scanner/internal/config"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/service"
	"github.com/reward-scanner/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: rewards <account-address> <year>")
		return fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	account := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}

	logger := logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	defer logger.Sync()

	year, err := service.ParseYear(args[1])
	if err != nil {
		logger.ErrorWithErr("Invalid year argument", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	client := adapter.NewHeliumClient(&cfg.API)

	// Redis is optional; without it every quote comes from the ledger
	var quotes service.PriceLookupCache
	if cfg.Redis.Enabled() {
		cache, err := storage.NewRedisPriceCache(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Price cache unavailable, continuing without it")
		} else {
			defer cache.Close()
			quotes = cache
			logger.Infof("Price cache connected at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	pipeline := service.NewRewardPipeline(
		account,
		service.NewActivityService(client, cfg.Files.RawActivityPath()),
		service.NewPriceService(client, quotes, cfg.Files.DollarPerBlockPath()),
		service.NewExportService(cfg.Files),
	)

	total, err := pipeline.Run(ctx, year)
	if err != nil {
		logger.WithField("runId", pipeline.RunID()).ErrorWithErr("Reward pipeline failed", err)
		return err
	}

	fmt.Println(total)
	return nil
}
