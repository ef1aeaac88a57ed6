package domain

import "time"

// RunStatus is the terminal status of one strategy run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// CrawlRunStats is one append-only record per (source, run). It is written by
// the orchestrator after each strategy run and never mutated afterwards.
type CrawlRunStats struct {
	ID                string    `gorm:"type:text;primaryKey" json:"id"`
	Source            string    `gorm:"type:text;not null;index:idx_crawl_runs_source" json:"source"`
	JobsFound         int       `gorm:"default:0" json:"jobs_found"`
	JobsCreated       int       `gorm:"default:0" json:"jobs_created"`
	JobsUpdated       int       `gorm:"default:0" json:"jobs_updated"`
	JobsSkipped       int       `gorm:"default:0" json:"jobs_skipped"`
	DuplicatesSkipped int       `gorm:"default:0" json:"duplicates_skipped"`
	Errors            int       `gorm:"default:0" json:"errors"`
	DurationMs        int64     `json:"duration_ms"`
	Status            RunStatus `gorm:"type:text;index:idx_crawl_runs_status" json:"status"`
	ErrorMessage      string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt         time.Time `gorm:"index:idx_crawl_runs_created" json:"created_at"`
}

// TableName returns the database table name for CrawlRunStats.
func (CrawlRunStats) TableName() string {
	return "crawl_run_stats"
}
