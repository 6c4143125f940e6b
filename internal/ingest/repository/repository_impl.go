package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []domain.Job
	err := db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status string) error {
	return db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateProgress(ctx context.Context, db *gorm.DB, id uuid.UUID, progress float64) error {
	return db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"progress":   progress,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) MarkTerminal(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status NOT IN ?", job.ID, []string{domain.StatusCompleted, domain.StatusFailed}).
		Updates(map[string]any{
			"status":     job.Status,
			"progress":   job.Progress,
			"stats":      job.Stats,
			"error":      job.Error,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Job{}).Error
}

func (r *repo) FailStaleRunning(ctx context.Context, db *gorm.DB, reason string) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("status IN ?", []string{domain.StatusQueued, domain.StatusRunning}).
		Updates(map[string]any{
			"status":     domain.StatusFailed,
			"error":      reason,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
