package validation

import (
	"github.com/smallbiznis/partsentry/internal/validation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("validation.engine",
	fx.Provide(service.New),
)
