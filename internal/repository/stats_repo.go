package repository

import (
	"context"
	"time"

	"github.com/davidtran/jobpilot/internal/domain"
	"gorm.io/gorm"
)

// StatsRepository persists crawl run statistics. Records are append-only.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository bound to db.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Save appends one run stats record.
func (r *StatsRepository) Save(ctx context.Context, stats *domain.CrawlRunStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

// FindRecent retrieves records created after since, newest first, bounded by
// limit.
func (r *StatsRepository) FindRecent(ctx context.Context, since time.Time, limit int) ([]domain.CrawlRunStats, error) {
	var records []domain.CrawlRunStats
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
