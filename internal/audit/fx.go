package audit

import (
	"github.com/spediralabs/spedira/internal/audit/repository"
	"github.com/spediralabs/spedira/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewRecorder),
	fx.Provide(service.NewExportService),
)
