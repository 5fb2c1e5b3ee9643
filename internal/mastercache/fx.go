package mastercache

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/spediralabs/spedira/internal/clock"
	"github.com/spediralabs/spedira/internal/config"
	"github.com/spediralabs/spedira/internal/observability"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("mastercache",
	fx.Provide(New),
)

type Param struct {
	fx.In

	Config  config.Config
	Client  *redis.Client
	Log     *zap.Logger
	DB      *gorm.DB
	Clock   clock.Clock
	Repo    pricelistdomain.Repository
	Metrics *observability.Metrics `optional:"true"`
}

func New(p Param) Cache {
	loader := func(ctx context.Context, workspaceID snowflake.ID) (*pricelistdomain.PriceList, error) {
		return p.Repo.FindMaster(ctx, p.DB, workspaceID, p.Clock.Now(ctx))
	}
	return NewRedisCache(p.Client, p.Log, loader, p.Config.Redis.MasterListTTL, p.Metrics)
}
