package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grocerymatch/backend/config"
	httpDelivery "github.com/grocerymatch/backend/internal/delivery/http"
	"github.com/grocerymatch/backend/internal/domain"
	"github.com/grocerymatch/backend/internal/infrastructure/cache"
	"github.com/grocerymatch/backend/internal/logger"
	"github.com/grocerymatch/backend/internal/usecase"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Server.Environment, Level: cfg.Log.Level})

	log.Info().
		Str("version", "1.0.0").
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache_type", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting GroceryMatch backend")

	dictionaries, err := config.LoadDictionaries(cfg.Matching.DictionaryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionaries")
	}
	if cfg.Matching.DictionaryPath != "" {
		log.Info().Str("path", cfg.Matching.DictionaryPath).Msg("dictionaries loaded from file")
	}

	// Initialize infrastructure dependencies
	reportCache, closeCache := newCache(cfg, log)
	defer closeCache()

	// Initialize usecase layer
	catalog := usecase.NewCatalogService(reportCache, usecase.CatalogServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Matching: usecase.MatchConfig{
			DiscoveryThreshold: cfg.Matching.DiscoveryThreshold,
			QuantityThreshold:  cfg.Matching.QuantityThreshold,
			Dictionaries:       &dictionaries,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
		Detector: usecase.DetectorConfig{
			MergeThreshold: cfg.Matching.MergeThreshold,
			Workers:        cfg.Matching.Workers,
		},
		Logger: &log,
	})

	log.Info().
		Float64("discovery_threshold", cfg.Matching.DiscoveryThreshold).
		Float64("quantity_threshold", cfg.Matching.QuantityThreshold).
		Float64("merge_threshold", cfg.Matching.MergeThreshold).
		Int("workers", cfg.Matching.Workers).
		Bool("debug", cfg.Matching.EnableDebugLogging).
		Msg("matching engine configured")

	handler := httpDelivery.NewHandler(catalog, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("server stopped")
}

// newCache builds the configured report cache. An unreachable Redis is logged but kept:
// the catalog service treats cache failures as misses.
func newCache(cfg *config.Config, log zerolog.Logger) (domain.CacheRepository, func()) {
	if cfg.Cache.Type != "redis" {
		memoryCache := cache.NewMemoryCache(cfg.Cache.MaxEntries)
		return memoryCache, func() { _ = memoryCache.Close() }
	}

	redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid Redis URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis not reachable, duplicate reports will not be cached until it is")
	} else {
		log.Info().Msg("Redis cache connected")
	}

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("closing Redis cache")
		}
	}
}
