package parts

import (
	"github.com/smallbiznis/partsentry/internal/parts/repository"
	"github.com/smallbiznis/partsentry/internal/parts/service"
	"go.uber.org/fx"
)

var Module = fx.Module("parts.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
