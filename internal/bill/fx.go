package bill

import (
	"github.com/pharmadesk/pharmadesk/internal/bill/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("bill",
	fx.Provide(repository.Provide),
)
