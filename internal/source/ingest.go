package source

import (
	"context"
	"fmt"
	"time"

	"github.com/davidtran/jobpilot/internal/dedup"
	"github.com/davidtran/jobpilot/internal/domain"
	"github.com/davidtran/jobpilot/internal/normalizer"
	"github.com/google/uuid"
)

// RawJob carries the fields a strategy extracted from a detail page before
// normalization. Empty strings mean the field could not be resolved.
type RawJob struct {
	ExternalID     string
	Title          string
	Company        string
	Location       string
	SalaryText     string
	Description    string
	Requirements   string
	Benefits       string
	JobTypeText    string
	ExperienceText string
	Skills         []string
	PostedAt       *time.Time
	Deadline       *time.Time
	URL            string
	LogoURL        string
	Tags           []string
	Categories     []string
	Verified       bool
	Branded        bool
}

// Outcome classifies what the ingest pipeline did with one raw job.
type Outcome int

const (
	// OutcomeSkipped: essential fields missing, nothing persisted.
	OutcomeSkipped Outcome = iota
	// OutcomeCreated: new posting persisted.
	OutcomeCreated
	// OutcomeUpdated: existing posting updated in place.
	OutcomeUpdated
	// OutcomeDuplicate: fuzzy duplicate detected, nothing persisted.
	OutcomeDuplicate
)

// JobStore is the write surface the pipeline needs.
type JobStore interface {
	Create(ctx context.Context, job *domain.JobPosting) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// Ingestor normalizes a RawJob, runs deduplication, and persists the result.
// Shared by all strategies so per-source code stays purely about extraction.
type Ingestor struct {
	store  JobStore
	engine *dedup.Engine
}

// NewIngestor creates the shared ingest pipeline.
func NewIngestor(store JobStore, engine *dedup.Engine) *Ingestor {
	return &Ingestor{store: store, engine: engine}
}

// Upsert runs one raw job through normalize -> dedup -> persist.
//
// Matches by external id or content hash update the stored posting in place;
// fuzzy title matches are treated as duplicates and skipped, since merging
// onto a similar-but-not-identical posting would corrupt it.
func (i *Ingestor) Upsert(ctx context.Context, sourceName string, raw *RawJob) (Outcome, error) {
	if raw.Title == "" || raw.Company == "" {
		return OutcomeSkipped, nil
	}

	city := normalizer.City(raw.Location)
	salary := normalizer.Salary(raw.SalaryText)
	contentHash := dedup.ContentHash(raw.Title, raw.Company, city)

	result, err := i.engine.CheckDuplicate(ctx, dedup.Candidate{
		Source:     sourceName,
		ExternalID: raw.ExternalID,
		Title:      raw.Title,
		Company:    raw.Company,
		Location:   city,
	})
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("dedup check: %w", err)
	}

	if result.IsDuplicate && result.MatchType == dedup.MatchFuzzyTitle {
		return OutcomeDuplicate, nil
	}

	if result.IsDuplicate {
		fields := map[string]interface{}{
			"title":           raw.Title,
			"company":         raw.Company,
			"city":            city,
			"salary_min":      salary.Min,
			"salary_max":      salary.Max,
			"salary_currency": salary.Currency,
			"description":     normalizer.SanitizeHTML(raw.Description),
			"requirements":    normalizer.SanitizeHTML(raw.Requirements),
			"benefits":        normalizer.SanitizeHTML(raw.Benefits),
			"job_type":        normalizer.JobType(raw.JobTypeText),
			"experience":      normalizer.ExperienceLevel(raw.ExperienceText),
			"skills":          domain.StringArray(normalizer.Skills(raw.Skills)),
			"content_hash":    contentHash,
			"url":             raw.URL,
		}
		if raw.ExternalID != "" {
			fields["external_id"] = raw.ExternalID
		}
		if raw.PostedAt != nil {
			fields["posted_at"] = raw.PostedAt
		}
		if raw.Deadline != nil {
			fields["deadline"] = raw.Deadline
		}
		if raw.LogoURL != "" {
			fields["logo_url"] = raw.LogoURL
		}
		if err := i.store.Update(ctx, result.ExistingID, fields); err != nil {
			return OutcomeSkipped, fmt.Errorf("update posting %s: %w", result.ExistingID, err)
		}
		return OutcomeUpdated, nil
	}

	job := &domain.JobPosting{
		ID:             uuid.New().String(),
		Source:         sourceName,
		ExternalID:     raw.ExternalID,
		Title:          raw.Title,
		Company:        raw.Company,
		City:           city,
		SalaryMin:      salary.Min,
		SalaryMax:      salary.Max,
		SalaryCurrency: salary.Currency,
		Description:    normalizer.SanitizeHTML(raw.Description),
		Requirements:   normalizer.SanitizeHTML(raw.Requirements),
		Benefits:       normalizer.SanitizeHTML(raw.Benefits),
		JobType:        normalizer.JobType(raw.JobTypeText),
		Experience:     normalizer.ExperienceLevel(raw.ExperienceText),
		Skills:         domain.StringArray(normalizer.Skills(raw.Skills)),
		PostedAt:       raw.PostedAt,
		Deadline:       raw.Deadline,
		ContentHash:    contentHash,
		URL:            raw.URL,
		LogoURL:        raw.LogoURL,
		Tags:           domain.StringArray(raw.Tags),
		Categories:     domain.StringArray(raw.Categories),
		IsVerified:     raw.Verified,
		IsBranded:      raw.Branded,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := i.store.Create(ctx, job); err != nil {
		return OutcomeSkipped, fmt.Errorf("create posting: %w", err)
	}
	return OutcomeCreated, nil
}
