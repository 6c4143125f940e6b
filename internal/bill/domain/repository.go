package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists bills with their nested detail rows.
type Repository interface {
	// Exists checks the natural key (bill_no, store_id).
	Exists(ctx context.Context, db *gorm.DB, billNo string, storeID snowflake.ID) (bool, error)
	// Create writes the bill and its details in one transaction.
	Create(ctx context.Context, db *gorm.DB, bill *Bill) error
	// CountByStore reports how many bills a store owns.
	CountByStore(ctx context.Context, db *gorm.DB, storeID snowflake.ID) (int64, error)
}
