package processor

import (
	"github.com/smallbiznis/partsentry/internal/extract"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("processor",
	fx.Provide(provideExtractor),
	fx.Provide(New),
)

func provideExtractor(log *zap.Logger) extract.Extractor {
	return extract.NewPDFExtractor(log)
}
