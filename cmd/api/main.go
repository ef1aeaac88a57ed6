package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidtran/jobpilot/internal/api"
	"github.com/davidtran/jobpilot/internal/config"
	"github.com/davidtran/jobpilot/internal/dedup"
	"github.com/davidtran/jobpilot/internal/fetch"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/repository"
	"github.com/davidtran/jobpilot/internal/scheduler"
	"github.com/davidtran/jobpilot/internal/service"
	"github.com/davidtran/jobpilot/internal/source"
	"github.com/davidtran/jobpilot/internal/source/linkedin"
	"github.com/davidtran/jobpilot/internal/source/topcv"
)

func main() {
	appLogger := logger.NewFromEnv()
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	limiter := ratelimit.New(rateLimitProfile(cfg.RateLimit.Default), sourceProfiles(cfg.RateLimit.Sources))
	sessions := fetch.NewFactory(fetch.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.FetchTimeout,
	})
	ingestor := source.NewIngestor(jobRepo, dedup.New(jobRepo))

	var strategies []source.Strategy
	if cfg.Sources.TopCV.Enabled {
		strategies = append(strategies, topcv.New(topcv.Config{
			BaseURL:    cfg.Sources.TopCV.BaseURL,
			ListingURL: cfg.Sources.TopCV.ListingURL,
		}, sessions, limiter, ingestor, appLogger))
	}
	if cfg.Sources.LinkedIn.Enabled {
		strategies = append(strategies, linkedin.New(linkedin.Config{
			BaseURL:    cfg.Sources.LinkedIn.BaseURL,
			ListingURL: cfg.Sources.LinkedIn.ListingURL,
			Keywords:   cfg.Sources.LinkedIn.Keywords,
			Location:   cfg.Sources.LinkedIn.Location,
		}, sessions, limiter, ingestor, appLogger))
	}
	if len(strategies) == 0 {
		appLogger.Warn("No sources enabled, crawler will be idle")
	}

	crawlService := service.NewCrawlService(strategies, statsRepo, limiter, appLogger, cfg.Crawler.PageLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Crawler.Enabled {
		sched := scheduler.New(crawlService, cfg.Crawler.Schedule, cfg.Crawler.RunOnStart, appLogger)
		if err := sched.Start(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to start scheduler")
		}
		defer sched.Stop()
	}

	router := api.SetupRouter(crawlService, jobRepo, appLogger, api.RouterConfig{
		Mode:           cfg.Server.Mode,
		AdminToken:     cfg.Server.AdminToken,
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

func rateLimitProfile(p config.RateLimitProfile) ratelimit.Profile {
	return ratelimit.Profile{
		RequestsPerMinute: p.RequestsPerMinute,
		MinDelay:          time.Duration(p.MinDelayMs) * time.Millisecond,
		BackoffMultiplier: p.BackoffMultiplier,
		MaxBackoff:        time.Duration(p.MaxBackoffMs) * time.Millisecond,
	}
}

func sourceProfiles(profiles map[string]config.RateLimitProfile) map[string]ratelimit.Profile {
	out := make(map[string]ratelimit.Profile, len(profiles))
	for name, p := range profiles {
		out[name] = rateLimitProfile(p)
	}
	return out
}
