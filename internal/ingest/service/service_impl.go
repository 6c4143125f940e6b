package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	billdomain "github.com/pharmadesk/pharmadesk/internal/bill/domain"
	"github.com/pharmadesk/pharmadesk/internal/clock"
	"github.com/pharmadesk/pharmadesk/internal/config"
	customerdomain "github.com/pharmadesk/pharmadesk/internal/customer/domain"
	"github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	"github.com/pharmadesk/pharmadesk/internal/ingest/progress"
	obsmetrics "github.com/pharmadesk/pharmadesk/internal/observability/metrics"
	"github.com/pharmadesk/pharmadesk/internal/parse"
	storedomain "github.com/pharmadesk/pharmadesk/internal/store/domain"
	pkgdb "github.com/pharmadesk/pharmadesk/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// progressStep is the minimum advance, in percent, between two published
// progress events. Bounds broadcast volume on large sheets.
const progressStep = 0.1

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Clock     clock.Clock
	GenID     *snowflake.Node
	Jobs      domain.Repository
	Customers customerdomain.Repository
	Stores    storedomain.Repository
	Bills     billdomain.Repository
	Hub       *progress.Hub
	Metrics   *obsmetrics.IngestMetrics `optional:"true"`
}

// Service is the ingestion orchestrator: it owns the job lifecycle, runs
// parsing on a dedicated worker per upload, and persists bills idempotently.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.IngestConfig
	clock     clock.Clock
	genID     *snowflake.Node
	jobs      domain.Repository
	customers customerdomain.Repository
	stores    storedomain.Repository
	bills     billdomain.Repository
	hub       *progress.Hub
	metrics   *obsmetrics.IngestMetrics
	registry  *registry

	assembler *parse.Assembler
	segmenter *parse.Segmenter
}

func New(p Params) domain.Service {
	opts := p.Cfg.Ingest.ParseOptions()
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("ingest.service"),
		cfg:       p.Cfg.Ingest,
		clock:     p.Clock,
		genID:     p.GenID,
		jobs:      p.Jobs,
		customers: p.Customers,
		stores:    p.Stores,
		bills:     p.Bills,
		hub:       p.Hub,
		metrics:   p.Metrics,
		registry:  newRegistry(),
		assembler: parse.NewAssembler(opts),
		segmenter: parse.NewSegmenter(opts),
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	switch req.SourceKind {
	case domain.SourceReceiptText:
		if strings.TrimSpace(req.Text) == "" {
			return domain.SubmitResponse{}, domain.ErrEmptyPayload
		}
	case domain.SourceStatement:
		if len(req.Payload) == 0 {
			return domain.SubmitResponse{}, domain.ErrEmptyPayload
		}
	default:
		return domain.SubmitResponse{}, domain.ErrUnsupportedSource
	}

	job := &domain.Job{
		ID:         uuid.New(),
		SourceKind: req.SourceKind,
		SourceRef:  strings.TrimSpace(req.SourceRef),
		Status:     domain.StatusQueued,
	}
	if err := s.jobs.Insert(ctx, s.db, job); err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("create job: %w", err)
	}

	// Small receipt payloads are parsed inline so the caller gets the full
	// ledger in one round trip. The worker writes the terminal status onto
	// the job before returning, so the response echoes whatever it reached.
	if req.SourceKind == domain.SourceReceiptText && len(req.Text) <= s.cfg.SyncMaxBytes {
		ledger := s.runJob(ctx, job, req)
		return domain.SubmitResponse{
			JobID:  job.ID.String(),
			Status: job.Status,
			Ledger: ledger,
		}, nil
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s.registry.register(job.ID, cancel)
	go func() {
		defer cancel()
		s.runJob(workerCtx, job, req)
	}()

	return domain.SubmitResponse{JobID: job.ID.String(), Status: domain.StatusQueued}, nil
}

func (s *Service) Get(ctx context.Context, jobID string) (domain.Job, error) {
	id, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil {
		return domain.Job{}, domain.ErrInvalidJobID
	}
	job, err := s.jobs.FindByID(ctx, s.db, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Job{}, domain.ErrJobNotFound
		}
		return domain.Job{}, err
	}
	return *job, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Job, error) {
	return s.jobs.List(ctx, s.db, 50)
}

func (s *Service) Delete(ctx context.Context, jobID string) error {
	id, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil {
		return domain.ErrInvalidJobID
	}
	if _, err := s.jobs.FindByID(ctx, s.db, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrJobNotFound
		}
		return err
	}

	// Stopping the worker does not roll back bills persisted before the
	// cancellation; re-submission converges via the idempotent skip path.
	s.registry.cancel(id)
	return s.jobs.Delete(ctx, s.db, id)
}

// runJob is the worker body. Every bill is independently fallible; only a
// crash of the worker itself or a cancellation marks the whole job failed.
func (s *Service) runJob(ctx context.Context, job *domain.Job, req domain.SubmitRequest) *domain.Ledger {
	started := s.clock.Now()
	jobID := job.ID.String()
	log := s.log.With(zap.String("job_id", jobID), zap.String("source_kind", req.SourceKind))

	ctx, span := otel.Tracer("pharmadesk/ingest").Start(ctx, "ingest.run",
		oteltrace.WithAttributes(
			attribute.String("job_id", jobID),
			attribute.String("source_kind", req.SourceKind),
		))
	defer span.End()

	ledger := &domain.Ledger{}
	defer func() {
		if r := recover(); r != nil {
			log.Error("ingestion worker crashed", zap.Any("panic", r))
			s.finishJob(job, domain.StatusFailed, ledger, fmt.Sprintf("worker crashed: %v", r))
		}
		s.registry.sweep(job.ID)
		span.SetAttributes(attribute.String("job_status", job.Status))
		if s.metrics != nil {
			s.metrics.ObserveJob(req.SourceKind, s.clock.Now().Sub(started))
		}
	}()

	if err := s.jobs.UpdateStatus(ctx, s.db, job.ID, domain.StatusRunning); err != nil {
		log.Error("job could not transition to running", zap.Error(err))
		s.finishJob(job, domain.StatusFailed, ledger, err.Error())
		return ledger
	}
	job.Status = domain.StatusRunning

	drafts, rejects, err := s.parseSource(req)
	if err != nil {
		log.Error("source parse failed", zap.Error(err))
		span.RecordError(err)
		s.finishJob(job, domain.StatusFailed, ledger, err.Error())
		return ledger
	}

	ledger.Parsed = len(drafts)
	for _, reject := range rejects {
		ledger.RecordSkip(reject.BillNo, reject.Reason)
	}

	total := len(drafts) + len(rejects)
	processed := len(rejects)
	published := 0.0

	for i, draft := range drafts {
		select {
		case <-ctx.Done():
			log.Warn("ingestion cancelled", zap.Int("processed", processed))
			s.finishJob(job, domain.StatusFailed, ledger, "cancelled")
			return ledger
		default:
		}

		s.persistBill(ctx, draft, ledger, log)
		processed++

		// A cancellation that interrupted the persist must not surface as
		// one more progress event; the next iteration turns it terminal.
		if ctx.Err() != nil {
			continue
		}

		pct := quantize(float64(processed) / float64(total) * 100)
		final := i == len(drafts)-1
		if pct-published >= progressStep || final {
			published = pct
			_ = s.jobs.UpdateProgress(ctx, s.db, job.ID, pct)
			s.hub.Publish(jobID, progress.Event{Progress: pct, Status: domain.StatusRunning})
		}
	}

	if ctx.Err() != nil {
		log.Warn("ingestion cancelled", zap.Int("processed", processed))
		s.finishJob(job, domain.StatusFailed, ledger, "cancelled")
		return ledger
	}

	log.Info("ingestion finished",
		zap.Int("parsed", ledger.Parsed),
		zap.Int("saved", ledger.Saved),
		zap.Int("skipped", ledger.Skipped),
		zap.Int("failed", ledger.Failed),
	)
	s.finishJob(job, domain.StatusCompleted, ledger, "")
	return ledger
}

func (s *Service) parseSource(req domain.SubmitRequest) ([]parse.DraftBill, []parse.Reject, error) {
	switch req.SourceKind {
	case domain.SourceReceiptText:
		bills, rejects := s.assembler.Assemble(req.Text)
		return bills, rejects, nil
	case domain.SourceStatement:
		return s.segmenter.ParseWorkbook(bytes.NewReader(req.Payload))
	default:
		return nil, nil, domain.ErrUnsupportedSource
	}
}

// persistBill applies the validity gate, resolves customer identity, and
// writes one bill. Failures land in the ledger and never abort the batch.
func (s *Service) persistBill(ctx context.Context, draft parse.DraftBill, ledger *domain.Ledger, log *zap.Logger) {
	if draft.BillNo == "" {
		ledger.RecordSkip("", parse.ReasonMissingBillNo)
		return
	}
	if draft.Date.IsZero() {
		ledger.RecordSkip(draft.BillNo, parse.ReasonMissingDate)
		return
	}
	if strings.TrimSpace(draft.StoreName) == "" {
		ledger.RecordSkip(draft.BillNo, parse.ReasonMissingStore)
		return
	}

	name, phone := s.customerIdentity(draft)
	customer, err := s.customers.Upsert(ctx, s.db, &customerdomain.Customer{
		ID:    s.genID.Generate(),
		Name:  name,
		Phone: phone,
	})
	if err != nil {
		ledger.RecordFailure(draft.BillNo, fmt.Sprintf("customer upsert: %v", err))
		return
	}

	store, err := s.stores.Upsert(ctx, s.db, &storedomain.Store{
		ID:      s.genID.Generate(),
		Name:    strings.TrimSpace(draft.StoreName),
		Address: draft.StoreAddress,
		Phone:   draft.StorePhone,
	})
	if err != nil {
		ledger.RecordFailure(draft.BillNo, fmt.Sprintf("store upsert: %v", err))
		return
	}

	exists, err := s.bills.Exists(ctx, s.db, draft.BillNo, store.ID)
	if err != nil {
		ledger.RecordFailure(draft.BillNo, fmt.Sprintf("existence check: %v", err))
		return
	}
	if exists {
		ledger.RecordSkip(draft.BillNo, "duplicate bill")
		if s.metrics != nil {
			s.metrics.BillSkipped()
		}
		return
	}

	bill := &billdomain.Bill{
		ID:          s.genID.Generate(),
		BillNo:      draft.BillNo,
		StoreID:     store.ID,
		CustomerID:  customer.ID,
		BillDate:    draft.Date,
		PaymentType: draft.PaymentType,
		AmountPaid:  draft.AmountPaid,
		IsReturn:    draft.IsReturn,
	}
	for i, item := range draft.Items {
		bill.Details = append(bill.Details, billdomain.BillDetail{
			ID:        s.genID.Generate(),
			LineNo:    i + 1,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Batch:     item.Batch,
			Expiry:    item.Expiry,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}

	if err := s.bills.Create(ctx, s.db, bill); err != nil {
		// A concurrent job may have won the natural-key race; that is a skip,
		// not a failure.
		if pkgdb.IsDuplicateKeyErr(err) {
			ledger.RecordSkip(draft.BillNo, "duplicate bill")
			if s.metrics != nil {
				s.metrics.BillSkipped()
			}
			return
		}
		log.Warn("bill persist failed", zap.String("bill_no", draft.BillNo), zap.Error(err))
		ledger.RecordFailure(draft.BillNo, err.Error())
		if s.metrics != nil {
			s.metrics.BillFailed()
		}
		return
	}

	ledger.Saved++
	if s.metrics != nil {
		s.metrics.BillSaved()
	}
}

// customerIdentity applies the four fallback policies, in order, so that
// every bill resolves to a customer even when the receipt omitted one or
// both fields.
func (s *Service) customerIdentity(draft parse.DraftBill) (name, phone string) {
	name = strings.TrimSpace(draft.CustomerName)
	phone = strings.TrimSpace(draft.CustomerPhone)

	switch {
	case name != "" && phone != "":
		return name, phone
	case name != "":
		return name, s.cfg.SentinelPhone
	case phone != "":
		return s.cfg.UnknownCustomerName, phone
	default:
		return s.cfg.CashlistCustomerName, s.cfg.SentinelPhone
	}
}

// finishJob persists the terminal state exactly once and fires the terminal
// broadcast. The terminal event always carries progress 100.
func (s *Service) finishJob(job *domain.Job, status string, ledger *domain.Ledger, errMsg string) {
	// The worker's context may already be cancelled; terminal persistence
	// uses a fresh one so the final state is never lost.
	ctx := context.Background()

	job.Status = status
	job.Progress = 100
	job.Stats = ledger.ToMap()
	job.Error = errMsg
	if err := s.jobs.MarkTerminal(ctx, s.db, job); err != nil {
		s.log.Error("terminal state persist failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}

	event := progress.Event{Progress: 100, Status: status, Error: errMsg}
	if status == domain.StatusCompleted {
		event.Stats = ledger.ToMap()
	}
	s.hub.PublishTerminal(job.ID.String(), event)
}

func quantize(pct float64) float64 {
	if pct > 100 {
		pct = 100
	}
	return math.Floor(pct*10) / 10
}
