// Package service hosts the crawl orchestrator: it drives the registered
// scraping strategies, persists per-run statistics, and aggregates pipeline
// health.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidtran/jobpilot/internal/domain"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/source"
)

// ErrCrawlRunning is returned when a run is triggered while another is in
// flight.
var ErrCrawlRunning = errors.New("a crawl run is already in progress")

// ErrNoStrategy is returned when no registered strategy recognizes a URL.
var ErrNoStrategy = errors.New("no strategy matches the given URL")

// healthWindow bounds the stats considered by Health.
const healthWindow = 24 * time.Hour

// degradedErrorThreshold is the trailing error count above which a source is
// reported degraded even when its runs kept succeeding.
const degradedErrorThreshold = 10

// StatsStore is the persistence surface the orchestrator needs for run
// statistics.
type StatsStore interface {
	Save(ctx context.Context, stats *domain.CrawlRunStats) error
	FindRecent(ctx context.Context, since time.Time, limit int) ([]domain.CrawlRunStats, error)
}

// CrawlService runs the registered strategies sequentially and records one
// stats row per strategy per invocation.
type CrawlService struct {
	strategies []source.Strategy
	stats      StatsStore
	limiter    *ratelimit.Limiter
	logger     *logger.Logger
	pageLimit  int

	mu      sync.Mutex
	running bool

	now func() time.Time
}

// NewCrawlService creates the orchestrator. Strategies run in registration
// order; pageLimit bounds listing pagination per strategy (zero means all
// pages).
func NewCrawlService(strategies []source.Strategy, stats StatsStore, limiter *ratelimit.Limiter, log *logger.Logger, pageLimit int) *CrawlService {
	return &CrawlService{
		strategies: strategies,
		stats:      stats,
		limiter:    limiter,
		logger:     log.WithField(logger.FieldComponent, "crawl"),
		pageLimit:  pageLimit,
		now:        time.Now,
	}
}

// RunAll crawls every registered source sequentially. One source failing never
// prevents the remaining sources from running, and every run leaves a stats
// record regardless of outcome. Returns ErrCrawlRunning when invoked while a
// previous run is still in flight.
func (s *CrawlService) RunAll(ctx context.Context) ([]domain.CrawlRunStats, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrCrawlRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.New().String()
	log := s.logger.WithField(logger.FieldRunID, runID)
	log.WithField(logger.FieldCount, len(s.strategies)).Info("Crawl run started")

	results := make([]domain.CrawlRunStats, 0, len(s.strategies))
	for _, strat := range s.strategies {
		stats := s.runOne(ctx, strat)
		results = append(results, stats)

		if err := s.stats.Save(ctx, &stats); err != nil {
			log.WithField(logger.FieldSource, strat.Name()).WithError(err).Error("Failed to persist run stats")
		}

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	log.Info("Crawl run finished")
	return results, nil
}

// runOne executes a single strategy and converts its outcome into a stats
// record.
func (s *CrawlService) runOne(ctx context.Context, strat source.Strategy) domain.CrawlRunStats {
	log := s.logger.WithField(logger.FieldSource, strat.Name())
	log.Info("Crawling source")

	start := s.now()
	res, err := strat.Crawl(ctx, s.pageLimit)
	elapsed := s.now().Sub(start)

	if res == nil {
		res = &source.RunResult{}
	}

	stats := domain.CrawlRunStats{
		ID:                uuid.New().String(),
		Source:            strat.Name(),
		JobsFound:         res.JobsFound,
		JobsCreated:       res.JobsCreated,
		JobsUpdated:       res.JobsUpdated,
		JobsSkipped:       res.JobsSkipped,
		DuplicatesSkipped: res.DuplicatesSkipped,
		Errors:            res.Errors,
		DurationMs:        elapsed.Milliseconds(),
		Status:            runStatus(res, err),
		CreatedAt:         s.now(),
	}
	if err != nil {
		// The run-level failure counts as an error alongside any item
		// errors accumulated before the strategy gave up.
		stats.Errors++
		stats.ErrorMessage = err.Error()
		log.WithError(err).WithField(logger.FieldDurationMs, stats.DurationMs).Error("Source crawl failed")
		return stats
	}

	log.WithFields(logger.Fields{
		logger.FieldStatus:     string(stats.Status),
		logger.FieldDurationMs: stats.DurationMs,
		"jobs_found":           stats.JobsFound,
		"jobs_created":         stats.JobsCreated,
		"jobs_updated":         stats.JobsUpdated,
		"duplicates_skipped":   stats.DuplicatesSkipped,
		"errors":               stats.Errors,
	}).Info("Source crawl finished")
	return stats
}

// runStatus maps a run outcome to its terminal status: a failed run means the
// strategy itself errored, a partial run completed with item-level errors.
func runStatus(res *source.RunResult, err error) domain.RunStatus {
	switch {
	case err != nil:
		return domain.RunStatusFailed
	case res.Errors > 0:
		return domain.RunStatusPartial
	default:
		return domain.RunStatusSuccess
	}
}

// CrawlSpecificURL ingests one ad-hoc URL through the strategy that recognizes
// it.
func (s *CrawlService) CrawlSpecificURL(ctx context.Context, url string) error {
	for _, strat := range s.strategies {
		if strat.MatchesURL(url) {
			s.logger.WithFields(logger.Fields{
				logger.FieldSource: strat.Name(),
				logger.FieldURL:    url,
			}).Info("Ad-hoc crawl")
			return strat.CrawlURL(ctx, url)
		}
	}
	return fmt.Errorf("%w: %s", ErrNoStrategy, url)
}

// Running reports whether a crawl run is currently in flight.
func (s *CrawlService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SourceHealth summarizes one source's trailing window plus its live limiter
// state.
type SourceHealth struct {
	Status        string           `json:"status"`
	LastRunAt     *time.Time       `json:"last_run_at,omitempty"`
	LastRunStatus domain.RunStatus `json:"last_run_status,omitempty"`
	Runs          int              `json:"runs"`
	JobsCreated   int              `json:"jobs_created"`
	JobsUpdated   int              `json:"jobs_updated"`
	Errors        int              `json:"errors"`
	AvgDurationMs int64            `json:"avg_duration_ms"`
	RateLimit     ratelimit.Status `json:"rate_limit"`
}

// HealthSummary is the pipeline-wide health report.
type HealthSummary struct {
	Status  string                  `json:"status"`
	Running bool                    `json:"running"`
	Sources map[string]SourceHealth `json:"sources"`
}

// Health aggregates the trailing 24 hours of run stats per source and attaches
// the live limiter snapshot. A source is unhealthy when its latest run failed,
// degraded when any trailing run was partial or trailing errors exceed the
// threshold, healthy otherwise. The overall status is the worst source status.
func (s *CrawlService) Health(ctx context.Context) (*HealthSummary, error) {
	since := s.now().Add(-healthWindow)
	records, err := s.stats.FindRecent(ctx, since, 500)
	if err != nil {
		return nil, fmt.Errorf("loading run stats: %w", err)
	}

	bySource := make(map[string][]domain.CrawlRunStats)
	for _, rec := range records {
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}

	summary := &HealthSummary{
		Status:  "healthy",
		Running: s.Running(),
		Sources: make(map[string]SourceHealth, len(s.strategies)),
	}

	for _, strat := range s.strategies {
		name := strat.Name()
		sh := s.sourceHealth(bySource[name], name)
		summary.Sources[name] = sh
		summary.Status = worseStatus(summary.Status, sh.Status)
	}

	return summary, nil
}

// sourceHealth folds the source's trailing records (newest first, as returned
// by the store) into one summary.
func (s *CrawlService) sourceHealth(records []domain.CrawlRunStats, name string) SourceHealth {
	sh := SourceHealth{
		Status:    "healthy",
		RateLimit: s.limiter.Status(name),
	}
	if len(records) == 0 {
		return sh
	}

	latest := records[0]
	sh.LastRunAt = &latest.CreatedAt
	sh.LastRunStatus = latest.Status

	var totalDuration int64
	anyPartial := false
	for _, rec := range records {
		sh.Runs++
		sh.JobsCreated += rec.JobsCreated
		sh.JobsUpdated += rec.JobsUpdated
		sh.Errors += rec.Errors
		totalDuration += rec.DurationMs
		if rec.Status == domain.RunStatusPartial {
			anyPartial = true
		}
	}
	sh.AvgDurationMs = totalDuration / int64(sh.Runs)

	switch {
	case latest.Status == domain.RunStatusFailed:
		sh.Status = "unhealthy"
	case anyPartial || sh.Errors > degradedErrorThreshold:
		sh.Status = "degraded"
	}
	return sh
}

var statusRank = map[string]int{"healthy": 0, "degraded": 1, "unhealthy": 2}

func worseStatus(a, b string) string {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}
