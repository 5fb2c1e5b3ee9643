package integration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	accountrepo "github.com/spediralabs/spedira/internal/account/repository"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	auditrepo "github.com/spediralabs/spedira/internal/audit/repository"
	auditservice "github.com/spediralabs/spedira/internal/audit/service"
	"github.com/spediralabs/spedira/internal/clock"
	"github.com/spediralabs/spedira/internal/config"
	"github.com/spediralabs/spedira/internal/governance"
	"github.com/spediralabs/spedira/internal/margin"
	"github.com/spediralabs/spedira/internal/mastercache"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	pricelistrepo "github.com/spediralabs/spedira/internal/pricelist/repository"
	pricelistservice "github.com/spediralabs/spedira/internal/pricelist/service"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
	rateservice "github.com/spediralabs/spedira/internal/rate/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env wires the real engine stack over in-memory stores: sqlite for the
// tariff store and miniredis for the master cache.
type env struct {
	db      *gorm.DB
	node    *snowflake.Node
	cache   mastercache.Cache
	repo    pricelistdomain.Repository
	plSvc   pricelistdomain.Service
	rateSvc ratedomain.Service
	audit   auditdomain.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&pricelistdomain.PriceList{},
		&pricelistdomain.PriceListEntry{},
		&pricelistdomain.PriceListAssignment{},
		&auditdomain.AuditEvent{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := zap.NewNop()
	repo := pricelistrepo.Provide()
	accounts := accountrepo.Provide()
	clk := clock.New()

	loader := func(ctx context.Context, workspaceID snowflake.ID) (*pricelistdomain.PriceList, error) {
		return repo.FindMaster(ctx, db, workspaceID, clk.Now(ctx))
	}
	cache := mastercache.NewRedisCache(redisClient, log, loader, time.Minute, nil)

	recorder := auditservice.NewRecorder(auditservice.RecorderParam{
		DB:   db,
		Log:  log,
		Repo: auditrepo.Provide(),
	})

	plSvc := pricelistservice.New(pricelistservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       repo,
		Accounts:   accounts,
		Cache:      cache,
		Governance: governance.NewValidator(&governance.Config{}),
		Audit:      recorder,
	})

	cfg := config.Config{}
	cfg.Pricing.SourceTimeout = time.Second
	cfg.Pricing.IslandProvinces = []string{"CA", "PA", "NU", "OR", "SS", "SU", "TP", "AG", "CL", "CT", "EN", "ME", "RG", "SR"}
	cfg.Pricing.ZTLZips = []string{"50121", "00186"}

	rateSvc := rateservice.New(rateservice.Params{
		DB:           db,
		Log:          log,
		Config:       cfg,
		Clock:        clk,
		Repo:         repo,
		PriceListSvc: plSvc,
		Accounts:     accounts,
		Cache:        cache,
		Audit:        recorder,
	})

	return &env{db: db, node: node, cache: cache, repo: repo, plSvc: plSvc, rateSvc: rateSvc, audit: recorder}
}

func (e *env) createAccount(t *testing.T, ws snowflake.ID, reseller, superadmin bool) snowflake.ID {
	t.Helper()
	acc := accountdomain.Account{
		ID:           e.node.Generate(),
		WorkspaceID:  ws,
		Email:        "user@spedira.it",
		IsReseller:   reseller,
		IsSuperAdmin: superadmin,
	}
	require.NoError(t, e.db.Create(&acc).Error)
	return acc.ID
}

func (e *env) seedMaster(t *testing.T, ws snowflake.ID, createdBy snowflake.ID) *pricelistdomain.PriceList {
	t.Helper()
	master := pricelistdomain.PriceList{
		ID:                   e.node.Generate(),
		WorkspaceID:          ws,
		CourierID:            snowflake.ID(1),
		Name:                 "Listino Master 2026",
		ListType:             pricelistdomain.ListTypeMaster,
		Priority:             pricelistdomain.PriorityDefault,
		Status:               pricelistdomain.StatusActive,
		IsGlobal:             true,
		CreatedBy:            createdBy,
		DefaultMarginPercent: 10,
		ValidFrom:            time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, e.db.Create(&master).Error)

	entries := []pricelistdomain.PriceListEntry{
		{WeightFrom: 0, WeightTo: 2, BasePrice: 5.9},
		{WeightFrom: 2, WeightTo: 5, BasePrice: 7.4},
		{WeightFrom: 5, WeightTo: 10, BasePrice: 9.9},
	}
	for _, entry := range entries {
		entry.ID = e.node.Generate()
		entry.PriceListID = master.ID
		entry.ServiceType = pricelistdomain.ServiceStandard
		entry.IslandSurcharge = 7
		require.NoError(t, e.db.Create(&entry).Error)
	}
	return &master
}

func TestQuoteCriticalPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := snowflake.ID(1)

	admin := e.createAccount(t, ws, false, true)
	client := e.createAccount(t, ws, false, false)
	master := e.seedMaster(t, ws, admin)

	// 1. A plain client quote resolves through the cached master list.
	quote, err := e.rateSvc.PriceWithRules(ctx, client, ws, ratedomain.QuoteParams{
		Weight:      3,
		Destination: ratedomain.Destination{Zip: "20121", Province: "MI", Region: "Lombardia"},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, master.ID, quote.PriceListID)
	// 7.4 * 1.10, no surcharges on the mainland.
	assert.Equal(t, 8.14, quote.TotalPrice)

	// An island destination picks up the configured surcharge.
	island, err := e.rateSvc.PriceWithRules(ctx, client, ws, ratedomain.QuoteParams{
		Weight:      3,
		Destination: ratedomain.Destination{Zip: "09124", Province: "CA", Region: "Sardegna"},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, island)
	assert.Equal(t, 15.14, island.TotalPrice)
	assert.Equal(t, 7.0, island.Surcharges["island"])

	// 2. Clone the master for a reseller with a new margin.
	newMargin := 25.0
	active := pricelistdomain.StatusActive
	clone, err := e.plSvc.Clone(ctx, pricelistdomain.Actor{AccountID: admin, IsSuperAdmin: true}, pricelistdomain.CloneRequest{
		WorkspaceID: ws,
		SourceID:    master.ID,
		NewName:     "Listino Rivenditore Nord",
		Overrides: pricelistdomain.CloneOverrides{
			DefaultMarginPercent: &newMargin,
			Status:               &active,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, clone.MasterListID)
	assert.Equal(t, master.ID, *clone.MasterListID)

	// 3. Assign the clone to the client; resolution now prefers it.
	reseller := e.createAccount(t, ws, true, false)
	require.NoError(t, e.db.Model(&pricelistdomain.PriceList{}).
		Where("id = ?", clone.ID).
		Update("created_by", reseller).Error)
	require.NoError(t, e.plSvc.Assign(ctx, pricelistdomain.Actor{AccountID: reseller, IsReseller: true}, clone.ID, client))

	quote, err = e.rateSvc.PriceWithRules(ctx, client, ws, ratedomain.QuoteParams{
		Weight:      3,
		Destination: ratedomain.Destination{Province: "MI"},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, clone.ID, quote.PriceListID)
	// 7.4 * 1.25
	assert.Equal(t, 9.25, quote.TotalPrice)

	// 4. The reseller comparison quotes its own list against the master.
	result, err := e.rateSvc.BestPriceForReseller(ctx, reseller, ws, ratedomain.QuoteParams{
		Weight:      3,
		Destination: ratedomain.Destination{Province: "MI"},
	})
	require.NoError(t, err)
	assert.Equal(t, 8.14, result.BestPrice)
	assert.Equal(t, margin.SourceMaster, result.APISource)
	require.NotNil(t, result.PriceDifference)
	assert.Equal(t, 1.11, *result.PriceDifference)

	// 5. Mutating the master invalidates the cache before acknowledging.
	_, err = e.plSvc.UpsertEntries(ctx, pricelistdomain.Actor{AccountID: admin, IsSuperAdmin: true}, master.ID, []pricelistdomain.EntryUpsert{
		{WeightFrom: 10, WeightTo: 20, ServiceType: pricelistdomain.ServiceStandard, BasePrice: 14.9},
	}, ws)
	require.NoError(t, err)

	heavy, err := e.rateSvc.PriceWithRules(ctx, client, ws, ratedomain.QuoteParams{
		Weight:      12,
		Destination: ratedomain.Destination{Province: "MI"},
	}, &master.ID)
	require.NoError(t, err)
	require.NotNil(t, heavy)
	// 14.9 * 1.10
	assert.Equal(t, 16.39, heavy.TotalPrice)

	// 6. The audit trail recorded clone, assignment and upsert.
	events, err := e.audit.ListEvents(ctx, clone.ID, auditdomain.ListFilter{Limit: 10})
	require.NoError(t, err)
	types := make(map[auditdomain.EventType]bool, len(events.Events))
	for _, ev := range events.Events {
		types[ev.EventType] = true
	}
	assert.True(t, types[auditdomain.EventPriceListCloned])
	assert.True(t, types[auditdomain.EventAssignmentCreated])
}
