package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariclear/backend/analyzer"
	"github.com/ariclear/backend/config"
	"github.com/ariclear/backend/generator"
	"github.com/ariclear/backend/logging"
	"github.com/ariclear/backend/scans"
	"github.com/ariclear/backend/stats"
)

// statsRetentionMonths is how many months of outcome counters are kept.
const statsRetentionMonths = 12

func newGenerator(cfg *config.Config) (generator.Generator, error) {
	opts := generator.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}
	if cfg.LLMProvider == config.ProviderLangChain {
		return generator.NewLangChainOpenAI(opts)
	}
	return generator.NewOpenAI(opts), nil
}

func newFetcher(cfg *config.Config) analyzer.Fetcher {
	if cfg.FetchMode == config.FetchBrowser {
		return analyzer.NewBrowserFetcher(cfg.FetchTimeout)
	}
	return analyzer.NewHTTPFetcher(cfg.FetchTimeout)
}

// newCache prefers Redis when configured and reachable, and otherwise keeps
// reports in process memory.
func newCache(ctx context.Context, cfg *config.Config, logger logging.Logger) analyzer.Cache {
	if cfg.RedisAddr != "" {
		rc := analyzer.NewRedisCache(analyzer.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		err := rc.Ping(ctx)
		if err == nil {
			logger.Info("Using redis report cache at %s", cfg.RedisAddr)
			return rc
		}
		logger.Warn("Redis at %s unavailable, falling back to memory cache: %v", cfg.RedisAddr, err)
		_ = rc.Close()
	}
	return analyzer.NewMemoryCache(cfg.CacheTTL, cfg.CacheSize)
}

func newAnalyzer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*analyzer.Analyzer, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	storage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats storage: %w", err)
	}
	storage.Cleanup(statsRetentionMonths)

	return analyzer.New(analyzer.Options{
		Fetcher:       newFetcher(cfg),
		Generator:     gen,
		Cache:         newCache(ctx, cfg, logger),
		Stats:         storage,
		Logger:        logger,
		MaxSnippetLen: cfg.MaxSnippetLen,
		Temperature:   &cfg.LLMTemperature,
		Timeout:       cfg.AnalyzeTimeout,
	})
}

// openStore opens the configured scan store and makes sure its schema
// exists.
func openStore(ctx context.Context, cfg *config.Config) (scans.Store, error) {
	var (
		store scans.Store
		err   error
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err = scans.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		path := cfg.SQLiteFile()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err = scans.NewSQLiteStore(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newStatistics(cfg *config.Config, logger logging.Logger) *logging.Statistics {
	statistics, err := logging.NewStatistics(filepath.Join(cfg.DataDir, "statistics.json"))
	if err != nil {
		logger.Warn("Starting with fresh statistics: %v", err)
	}
	return statistics
}
