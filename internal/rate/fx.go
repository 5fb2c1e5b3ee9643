package rate

import (
	"github.com/spediralabs/spedira/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate",
	fx.Provide(service.New),
)
