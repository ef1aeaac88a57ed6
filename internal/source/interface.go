// Package source defines the scraping strategy contract and the shared
// ingest pipeline every job-board adapter runs its raw extractions through.
package source

import "context"

// RunResult aggregates the counters of one strategy run.
type RunResult struct {
	JobsFound         int `json:"jobs_found"`
	JobsCreated       int `json:"jobs_created"`
	JobsUpdated       int `json:"jobs_updated"`
	JobsSkipped       int `json:"jobs_skipped"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	Errors            int `json:"errors"`
}

// Record bumps the counter matching one ingest outcome.
func (r *RunResult) Record(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.JobsCreated++
	case OutcomeUpdated:
		r.JobsUpdated++
	case OutcomeSkipped:
		r.JobsSkipped++
	case OutcomeDuplicate:
		r.DuplicatesSkipped++
	}
}

// Strategy is the per-source scraping contract. One concrete type per job
// board; the orchestrator iterates a registered list and routes ad-hoc URLs
// via MatchesURL.
type Strategy interface {
	// Name returns the stable source identifier (e.g. "topcv").
	Name() string

	// Crawl paginates the source's listing and ingests every discovered
	// item. pageLimit bounds the number of listing pages; zero means all
	// discovered pages. Item-level failures are counted in the result and
	// never abort the run; a returned error means the run itself failed
	// (listing unreachable, session could not be established).
	Crawl(ctx context.Context, pageLimit int) (*RunResult, error)

	// CrawlURL ingests a single ad-hoc detail page URL.
	CrawlURL(ctx context.Context, url string) error

	// MatchesURL reports whether this strategy recognizes the URL.
	MatchesURL(url string) bool
}
