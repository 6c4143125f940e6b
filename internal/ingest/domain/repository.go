package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists ingestion jobs.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Job, error)
	List(ctx context.Context, db *gorm.DB, limit int) ([]Job, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status string) error
	UpdateProgress(ctx context.Context, db *gorm.DB, id uuid.UUID, progress float64) error
	// MarkTerminal sets the final status, progress, ledger and error in one
	// update.
	MarkTerminal(ctx context.Context, db *gorm.DB, job *Job) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error
	// FailStaleRunning marks jobs left running by a crashed process as
	// failed. Used by the startup recovery pass.
	FailStaleRunning(ctx context.Context, db *gorm.DB, reason string) (int64, error)
}
