package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payment tenders persisted on a bill.
const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
)

// Bill is one persisted sales (or return) transaction. (BillNo, StoreID) is
// the natural key; bills are immutable once created by the pipeline and a
// second ingestion of the same key is a skip, never an update.
type Bill struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	BillNo      string       `gorm:"not null;uniqueIndex:ux_bills_bill_no_store" json:"bill_no"`
	StoreID     snowflake.ID `gorm:"not null;uniqueIndex:ux_bills_bill_no_store" json:"store_id"`
	CustomerID  snowflake.ID `gorm:"not null;index" json:"customer_id"`
	BillDate    time.Time    `gorm:"not null" json:"bill_date"`
	PaymentType string       `gorm:"not null" json:"payment_type"`
	AmountPaid  float64      `gorm:"not null" json:"amount_paid"`
	IsReturn    bool         `gorm:"not null;default:false" json:"is_return"`
	Details     []BillDetail `gorm:"foreignKey:BillID" json:"details,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BillDetail is one ordered line item of a bill.
type BillDetail struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BillID    snowflake.ID `gorm:"not null;index" json:"bill_id"`
	LineNo    int          `gorm:"not null" json:"line_no"`
	Name      string       `gorm:"not null" json:"name"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	Batch     string       `json:"batch,omitempty"`
	Expiry    string       `json:"expiry,omitempty"`
	UnitPrice float64      `gorm:"not null" json:"unit_price"`
	Discount  float64      `gorm:"not null;default:0" json:"discount"`
}
