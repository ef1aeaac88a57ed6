package repository

import (
	"context"
	"errors"
	"time"

	"github.com/davidtran/jobpilot/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles job posting persistence. Lookups that miss return
// (nil, nil) so callers never depend on gorm sentinels.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job posting.
func (r *JobRepository) Create(ctx context.Context, job *domain.JobPosting) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update applies a partial update to the posting with the given id.
func (r *JobRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.JobPosting{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// GetByID retrieves a posting by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	var job domain.JobPosting
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindByExternalID retrieves a posting by source-scoped external ID.
func (r *JobRepository) FindByExternalID(ctx context.Context, source, externalID string) (*domain.JobPosting, error) {
	if externalID == "" {
		return nil, nil
	}
	var job domain.JobPosting
	err := r.db.WithContext(ctx).
		First(&job, "source = ? AND external_id = ?", source, externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindByContentHash retrieves a posting by its content hash.
func (r *JobRepository) FindByContentHash(ctx context.Context, hash string) (*domain.JobPosting, error) {
	if hash == "" {
		return nil, nil
	}
	var job domain.JobPosting
	if err := r.db.WithContext(ctx).First(&job, "content_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindRecentByCompany retrieves postings for a company created after since,
// newest first, bounded by limit. Used as the fuzzy-match candidate set.
func (r *JobRepository) FindRecentByCompany(ctx context.Context, company string, since time.Time, limit int) ([]domain.JobPosting, error) {
	var jobs []domain.JobPosting
	if err := r.db.WithContext(ctx).
		Where("company = ? AND created_at >= ?", company, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListFilter narrows the posting list query.
type ListFilter struct {
	Source  string
	City    string
	JobType string
	Limit   int
	Offset  int
}

// List retrieves postings matching the filter plus the total match count.
func (r *JobRepository) List(ctx context.Context, filter ListFilter) ([]domain.JobPosting, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.JobPosting{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.JobType != "" {
		query = query.Where("job_type = ?", filter.JobType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []domain.JobPosting
	if err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}
