package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidtran/jobpilot/internal/config"
	"github.com/davidtran/jobpilot/internal/dedup"
	"github.com/davidtran/jobpilot/internal/fetch"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/repository"
	"github.com/davidtran/jobpilot/internal/service"
	"github.com/davidtran/jobpilot/internal/source"
	"github.com/davidtran/jobpilot/internal/source/linkedin"
	"github.com/davidtran/jobpilot/internal/source/topcv"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "jobpilot-crawl",
	})
	logger.SetDefault(appLogger)
	defer logger.Sync()

	sourceName := flag.String("source", "", "Crawl a single source (topcv, linkedin); empty crawls all enabled sources")
	pages := flag.Int("pages", 0, "Maximum listing pages per source, 0 means all discovered pages")
	url := flag.String("url", "", "Crawl a single job detail URL instead of a full run")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *pages > 0 {
		cfg.Crawler.PageLimit = *pages
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

	strategies := buildStrategies(cfg, *sourceName, sessions, limiter, ingestor, appLogger)
	if len(strategies) == 0 && *url == "" {
		appLogger.WithField("source", *sourceName).Fatal("No matching enabled sources")
	}

	crawlService := service.NewCrawlService(strategies, statsRepo, limiter, appLogger, cfg.Crawler.PageLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *url != "" {
		if err := crawlService.CrawlSpecificURL(ctx, *url); err != nil {
			appLogger.WithError(err).Fatal("Failed to crawl URL")
		}
		appLogger.WithField(logger.FieldURL, *url).Info("URL crawled")
		return
	}

	results, err := crawlService.RunAll(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Crawl run failed")
	}
	for _, stats := range results {
		appLogger.WithFields(logger.Fields{
			logger.FieldSource:   stats.Source,
			logger.FieldStatus:   string(stats.Status),
			"jobs_found":         stats.JobsFound,
			"jobs_created":       stats.JobsCreated,
			"jobs_updated":       stats.JobsUpdated,
			"duplicates_skipped": stats.DuplicatesSkipped,
			"errors":             stats.Errors,
		}).Info("Source finished")
	}
}

// buildStrategies assembles the enabled strategies, optionally narrowed to a
// single source by name.
func buildStrategies(cfg *config.Config, only string, sessions *fetch.Factory, limiter *ratelimit.Limiter, ingestor *source.Ingestor, log *logger.Logger) []source.Strategy {
	var strategies []source.Strategy
	if cfg.Sources.TopCV.Enabled && (only == "" || only == topcv.SourceName) {
		strategies = append(strategies, topcv.New(topcv.Config{
			BaseURL:    cfg.Sources.TopCV.BaseURL,
			ListingURL: cfg.Sources.TopCV.ListingURL,
		}, sessions, limiter, ingestor, log))
	}
	if cfg.Sources.LinkedIn.Enabled && (only == "" || only == linkedin.SourceName) {
		strategies = append(strategies, linkedin.New(linkedin.Config{
			BaseURL:    cfg.Sources.LinkedIn.BaseURL,
			ListingURL: cfg.Sources.LinkedIn.ListingURL,
			Keywords:   cfg.Sources.LinkedIn.Keywords,
			Location:   cfg.Sources.LinkedIn.Location,
		}, sessions, limiter, ingestor, log))
	}
	return strategies
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
