package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	billdomain "github.com/pharmadesk/pharmadesk/internal/bill/domain"
	"github.com/pharmadesk/pharmadesk/internal/config"
	customerdomain "github.com/pharmadesk/pharmadesk/internal/customer/domain"
	ingestdomain "github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	storedomain "github.com/pharmadesk/pharmadesk/internal/store/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned SQL targets postgres; other dialects are for
			// local runs where the schema can be derived from the models.
			return conn.AutoMigrate(
				&customerdomain.Customer{},
				&storedomain.Store{},
				&billdomain.Bill{},
				&billdomain.BillDetail{},
				&ingestdomain.Job{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
