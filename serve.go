package main

import (
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ariclear/backend/middleware"
	"github.com/ariclear/backend/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API",
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			logger.Error("Failed to shutdown analyzer: %v", err)
		}
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer store.Close()

	srv, err := server.New(server.Options{
		Analyzer:    a,
		Store:       store,
		Statistics:  newStatistics(cfg, logger),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Logger:      logger,
		DevMode:     cfg.DevMode,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return srv.Run(ctx, ":"+cfg.Port, shutdownTimeout)
}
