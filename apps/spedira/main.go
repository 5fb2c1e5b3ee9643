package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/spediralabs/spedira/internal/account"
	"github.com/spediralabs/spedira/internal/audit"
	"github.com/spediralabs/spedira/internal/clock"
	"github.com/spediralabs/spedira/internal/config"
	"github.com/spediralabs/spedira/internal/governance"
	"github.com/spediralabs/spedira/internal/mastercache"
	"github.com/spediralabs/spedira/internal/observability"
	"github.com/spediralabs/spedira/internal/pricelist"
	"github.com/spediralabs/spedira/internal/rate"
	"github.com/spediralabs/spedira/internal/redis"
	"github.com/spediralabs/spedira/internal/server"
	"github.com/spediralabs/spedira/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		redis.Module,

		// Functional domains
		account.Module,
		governance.Module,
		audit.Module,
		pricelist.Module,
		mastercache.Module,
		rate.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
