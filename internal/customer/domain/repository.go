package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists customers. Upsert never overwrites an existing row: the
// ingestion pipeline only guarantees presence, it does not own customer data.
type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, customer *Customer) (*Customer, error)
	FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*Customer, error)
}
