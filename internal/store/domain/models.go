package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is one pharmacy branch. Name is the natural key; the same bill number
// may legitimately repeat across stores.
type Store struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null;uniqueIndex" json:"name"`
	Address   string       `json:"address,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
