package settings

import (
	"github.com/smallbiznis/partsentry/internal/settings/repository"
	"github.com/smallbiznis/partsentry/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
