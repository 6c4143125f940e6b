package ingest

import (
	"context"

	"github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	"github.com/pharmadesk/pharmadesk/internal/ingest/progress"
	"github.com/pharmadesk/pharmadesk/internal/ingest/repository"
	"github.com/pharmadesk/pharmadesk/internal/ingest/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("ingest",
	fx.Provide(repository.Provide),
	fx.Provide(progress.NewHub),
	fx.Provide(service.New),
	fx.Invoke(recoverInterrupted),
)

// recoverInterrupted fails jobs a previous process left queued or running.
// Their workers died with the process; re-submission is the retry path.
func recoverInterrupted(conn *gorm.DB, repo domain.Repository, log *zap.Logger) error {
	n, err := repo.FailStaleRunning(context.Background(), conn, "interrupted by restart")
	if err != nil {
		return err
	}
	if n > 0 {
		log.Named("ingest").Warn("stale jobs failed on startup", zap.Int64("count", n))
	}
	return nil
}
