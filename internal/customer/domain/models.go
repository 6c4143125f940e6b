package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is a persisted buyer identity. Phone is the natural key: two jobs
// racing on the same phone converge onto one row via upsert semantics.
type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Phone     string       `gorm:"not null;uniqueIndex" json:"phone"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
