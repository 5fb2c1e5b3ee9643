package pricelist

import (
	"github.com/spediralabs/spedira/internal/pricelist/repository"
	"github.com/spediralabs/spedira/internal/pricelist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricelist.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
