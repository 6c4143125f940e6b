package customer

import (
	"github.com/pharmadesk/pharmadesk/internal/customer/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
)
