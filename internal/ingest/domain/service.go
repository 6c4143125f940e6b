package domain

import (
	"context"
	"errors"
)

// SubmitRequest carries one uploaded source into the pipeline.
type SubmitRequest struct {
	SourceKind string
	SourceRef  string
	// Text is the raw receipt body for SourceReceiptText submissions.
	Text string
	// Payload is the workbook bytes for SourceStatement submissions.
	Payload []byte
}

// SubmitResponse acknowledges an accepted submission. Ledger is only set on
// the synchronous small-payload path, where parsing finished inline.
type SubmitResponse struct {
	JobID  string  `json:"job_id"`
	Status string  `json:"status"`
	Ledger *Ledger `json:"stats,omitempty"`
}

// Service is the ingestion orchestrator. It exclusively owns the Job
// lifecycle; parsing and persistence run on a dedicated worker per job.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	Get(ctx context.Context, jobID string) (Job, error)
	List(ctx context.Context) ([]Job, error)
	// Delete cancels the worker if still running, marks the job failed, and
	// removes the job history. Bills persisted before cancellation stay.
	Delete(ctx context.Context, jobID string) error
}

// Input-shape errors are rejected synchronously, before a job exists.
var (
	ErrEmptyPayload      = errors.New("empty_payload")
	ErrUnsupportedSource = errors.New("unsupported_source")
	ErrInvalidJobID      = errors.New("invalid_job_id")
	ErrJobNotFound       = errors.New("job_not_found")
)
