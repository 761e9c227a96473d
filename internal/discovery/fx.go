package discovery

import (
	"github.com/smallbiznis/partsentry/internal/discovery/repository"
	"github.com/smallbiznis/partsentry/internal/discovery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discovery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
