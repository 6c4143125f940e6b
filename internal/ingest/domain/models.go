package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job statuses. A job's terminal status is set exactly once.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Source kinds accepted by the pipeline.
const (
	SourceReceiptText = "receipt_text"
	SourceStatement   = "statement_xlsx"
)

// Job is one ingestion run over one uploaded source. Progress is 0-100 and
// non-decreasing while running; Stats holds the success/skip/failure ledger
// once the job completes.
type Job struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"job_id"`
	SourceKind string            `gorm:"not null" json:"source_kind"`
	SourceRef  string            `json:"source_ref,omitempty"`
	Status     string            `gorm:"not null;index" json:"status"`
	Progress   float64           `gorm:"not null;default:0" json:"progress"`
	Stats      datatypes.JSONMap `gorm:"type:jsonb" json:"stats,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "ingestion_jobs" }

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// LedgerEntry explains one bill that was skipped or failed.
type LedgerEntry struct {
	BillNo string `json:"bill_no,omitempty"`
	Reason string `json:"reason"`
}

// Ledger accumulates per-bill outcomes for one job. Every row is
// independently fallible: skips and failures are expected noise in real
// receipts, not job-level errors.
type Ledger struct {
	Parsed   int           `json:"parsed"`
	Saved    int           `json:"saved"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Failures []LedgerEntry `json:"failures,omitempty"`
}

// RecordSkip notes an idempotent duplicate or an invalid draft.
func (l *Ledger) RecordSkip(billNo, reason string) {
	l.Skipped++
	l.Failures = append(l.Failures, LedgerEntry{BillNo: billNo, Reason: reason})
}

// RecordFailure notes a persistence failure for one bill.
func (l *Ledger) RecordFailure(billNo, reason string) {
	l.Failed++
	l.Failures = append(l.Failures, LedgerEntry{BillNo: billNo, Reason: reason})
}

// ToMap renders the ledger for the jsonb stats column and terminal events.
func (l Ledger) ToMap() datatypes.JSONMap {
	m := datatypes.JSONMap{
		"parsed":  l.Parsed,
		"saved":   l.Saved,
		"skipped": l.Skipped,
		"failed":  l.Failed,
	}
	if len(l.Failures) > 0 {
		failures := make([]any, 0, len(l.Failures))
		for _, f := range l.Failures {
			failures = append(failures, map[string]any{
				"bill_no": f.BillNo,
				"reason":  f.Reason,
			})
		}
		m["failures"] = failures
	}
	return m
}
