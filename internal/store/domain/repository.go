package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists stores by natural key.
type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, store *Store) (*Store, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Store, error)
}
