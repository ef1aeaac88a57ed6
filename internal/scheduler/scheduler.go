// Package scheduler wraps robfig/cron to trigger crawl runs on a schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/service"
)

// Scheduler fires the crawl orchestrator on a cron spec.
type Scheduler struct {
	cron       *cron.Cron
	crawler    *service.CrawlService
	spec       string
	runOnStart bool
	logger     *logger.Logger
}

// New creates a Scheduler. spec accepts standard 5-field cron expressions and
// the @every/@daily descriptors.
func New(crawler *service.CrawlService, spec string, runOnStart bool, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		crawler:    crawler,
		spec:       spec,
		runOnStart: runOnStart,
		logger:     log.WithField(logger.FieldComponent, "scheduler"),
	}
}

// Start registers the crawl job and starts the cron loop. When runOnStart is
// set, one run fires immediately in the background so data is available
// without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("registering cron job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("spec", s.spec).Info("Scheduler started")

	if s.runOnStart {
		go s.run(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.crawler.RunAll(ctx); err != nil {
		if errors.Is(err, service.ErrCrawlRunning) {
			s.logger.Warn("Skipping scheduled run, previous run still in progress")
			return
		}
		s.logger.WithError(err).Error("Scheduled crawl run failed")
	}
}
