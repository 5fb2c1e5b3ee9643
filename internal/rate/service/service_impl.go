package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"github.com/spediralabs/spedira/internal/clock"
	"github.com/spediralabs/spedira/internal/config"
	"github.com/spediralabs/spedira/internal/margin"
	"github.com/spediralabs/spedira/internal/mastercache"
	"github.com/spediralabs/spedira/internal/observability"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Config       config.Config
	Clock        clock.Clock
	Repo         pricelistdomain.Repository
	PriceListSvc pricelistdomain.Service
	Accounts     accountdomain.Resolver
	Cache        mastercache.Cache
	RateSource   ratedomain.RateSource  `optional:"true"`
	Metrics      *observability.Metrics `optional:"true"`
	Audit        auditdomain.Recorder   `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	repo         pricelistdomain.Repository
	priceListSvc pricelistdomain.Service
	accounts     accountdomain.Resolver
	cache        mastercache.Cache
	rateSource   ratedomain.RateSource
	metrics      *observability.Metrics
	audit        auditdomain.Recorder

	sourceTimeout   time.Duration
	islandProvinces map[string]bool
	ztlZips         map[string]bool
}

func New(p Params) ratedomain.Service {
	timeout := p.Config.Pricing.SourceTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("rate.service"),
		clock:        p.Clock,
		repo:         p.Repo,
		priceListSvc: p.PriceListSvc,
		accounts:     p.Accounts,
		cache:        p.Cache,
		rateSource:   p.RateSource,
		metrics:      p.Metrics,
		audit:        p.Audit,

		sourceTimeout:   timeout,
		islandProvinces: toSet(p.Config.Pricing.IslandProvinces),
		ztlZips:         toSet(p.Config.Pricing.ZTLZips),
	}
}

// PriceWithRules prices against the single applicable list: resolve,
// match an entry by weight band, zone and service, apply surcharges.
func (s *Service) PriceWithRules(ctx context.Context, accountID, workspaceID snowflake.ID, params ratedomain.QuoteParams, priceListID *snowflake.ID) (*ratedomain.PriceQuote, error) {
	if params.Weight <= 0 {
		return nil, ratedomain.ErrInvalidWeight
	}

	var list *pricelistdomain.PriceList
	var err error
	if priceListID != nil {
		list, err = s.repo.FindByID(ctx, s.db, workspaceID, *priceListID)
		if err != nil {
			return nil, err
		}
		if list != nil && list.Status != pricelistdomain.StatusActive {
			list = nil
		}
	} else {
		list, err = s.priceListSvc.ResolveApplicable(ctx, accountID, workspaceID, params.CourierID)
		if err != nil {
			return nil, err
		}
	}
	if list == nil {
		s.countQuote("no_price_list")
		return nil, nil
	}

	quote, err := s.priceAgainstList(ctx, list, params, margin.SourcePlatform)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		s.countQuote("no_matching_entry")
		return nil, nil
	}

	s.countQuote("priced")
	return quote, nil
}

func (s *Service) priceAgainstList(ctx context.Context, list *pricelistdomain.PriceList, params ratedomain.QuoteParams, apiSource margin.Source) (*ratedomain.PriceQuote, error) {
	entries, err := s.repo.ListEntries(ctx, s.db, list.ID)
	if err != nil {
		return nil, err
	}
	entry := matchEntry(entries, params)
	if entry == nil {
		return nil, nil
	}
	return computeQuote(list, entry, params, s.islandProvinces, s.ztlZips, apiSource), nil
}

// sourceOutcome tags one leg of the comparison as an explicit success or
// failure instead of relying on which call happened to return first.
type sourceOutcome struct {
	quote *ratedomain.PriceQuote
	err   error
}

// BestPriceForReseller quotes the reseller's own contract and the
// platform master tariff concurrently, bounded by a per-source timeout.
// One leg failing or timing out degrades to the other; only both legs
// coming back empty is reported as unavailable.
func (s *Service) BestPriceForReseller(ctx context.Context, accountID, workspaceID snowflake.ID, params ratedomain.QuoteParams) (*ratedomain.ComparisonResult, error) {
	if params.Weight <= 0 {
		return nil, ratedomain.ErrInvalidWeight
	}

	account, err := s.accounts.Resolve(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pricelistdomain.ErrInvalidAccount
	}
	if !account.IsReseller {
		return nil, ratedomain.ErrNotReseller
	}

	var resellerOut, masterOut sourceOutcome

	g := errgroup.Group{}
	g.Go(func() error {
		legCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		resellerOut = s.resellerLeg(legCtx, account, workspaceID, params)
		return nil
	})
	g.Go(func() error {
		legCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		masterOut = s.masterLeg(legCtx, workspaceID, params)
		return nil
	})
	_ = g.Wait()

	if resellerOut.err != nil {
		s.log.Warn("reseller rate source unavailable", zap.Error(resellerOut.err))
	}
	if masterOut.err != nil {
		s.log.Warn("master rate source unavailable", zap.Error(masterOut.err))
	}

	result := combine(resellerOut, masterOut)
	if result == nil {
		return nil, ratedomain.ErrUnavailable
	}

	if s.metrics != nil {
		s.metrics.ComparisonResults.WithLabelValues(string(result.APISource)).Inc()
	}
	if s.audit != nil {
		s.audit.Record(ctx, auditdomain.EventComparisonDecided, nil, &accountID,
			"dual-source rate comparison decided",
			comparisonMetadata(result),
			auditdomain.SeverityInfo,
		)
	}

	return result, nil
}

// resellerLeg prices the reseller's own contract: the external adapter
// when the account brings its own courier contract, otherwise the best
// price list the reseller authored.
func (s *Service) resellerLeg(ctx context.Context, account *accountdomain.Account, workspaceID snowflake.ID, params ratedomain.QuoteParams) sourceOutcome {
	if account.ByocContractCode != nil && s.rateSource != nil {
		raw, err := s.rateSource.Quote(ctx, account, params)
		if err != nil {
			return sourceOutcome{err: err}
		}
		if raw == nil || raw.TotalPrice <= 0 {
			return sourceOutcome{}
		}
		return sourceOutcome{quote: &ratedomain.PriceQuote{
			TotalPrice:      margin.Round2(raw.TotalPrice),
			Currency:        raw.Currency,
			DeliveryDaysMin: raw.DeliveryDaysMin,
			DeliveryDaysMax: raw.DeliveryDaysMax,
			APISource:       margin.SourceByocOwn,
		}}
	}

	list, err := s.resellerOwnedList(ctx, account, workspaceID, params.CourierID)
	if err != nil {
		return sourceOutcome{err: err}
	}
	if list == nil {
		return sourceOutcome{}
	}

	quote, err := s.priceAgainstList(ctx, list, params, margin.SourceResellerOwn)
	if err != nil {
		return sourceOutcome{err: err}
	}
	return sourceOutcome{quote: quote}
}

func (s *Service) resellerOwnedList(ctx context.Context, account *accountdomain.Account, workspaceID snowflake.ID, courierID *snowflake.ID) (*pricelistdomain.PriceList, error) {
	visible, err := s.repo.ListVisibleActive(ctx, s.db, pricelistdomain.VisibleFilter{
		WorkspaceID: workspaceID,
		AccountID:   account.ID,
		IsReseller:  true,
		CourierID:   courierID,
		At:          s.clock.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	owned := visible[:0:0]
	for _, l := range visible {
		if l.CreatedBy == account.ID && l.ListType != pricelistdomain.ListTypeMaster {
			owned = append(owned, l)
		}
	}
	if len(owned) == 0 {
		return nil, nil
	}

	sort.SliceStable(owned, func(i, j int) bool {
		ri, rj := owned[i].Priority.Rank(), owned[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return owned[i].ValidFrom.After(owned[j].ValidFrom)
	})
	return &owned[0], nil
}

func (s *Service) masterLeg(ctx context.Context, workspaceID snowflake.ID, params ratedomain.QuoteParams) sourceOutcome {
	master, err := s.cache.Get(ctx, workspaceID)
	if err != nil {
		return sourceOutcome{err: err}
	}
	if master == nil || !master.ValidAt(s.clock.Now(ctx)) {
		return sourceOutcome{}
	}
	if params.CourierID != nil && master.CourierID != *params.CourierID {
		return sourceOutcome{}
	}

	quote, err := s.priceAgainstList(ctx, master, params, margin.SourceMaster)
	if err != nil {
		return sourceOutcome{err: err}
	}
	return sourceOutcome{quote: quote}
}

// combine picks the lower price. Ties favor the master contract so the
// platform model wins when prices are identical.
func combine(reseller, master sourceOutcome) *ratedomain.ComparisonResult {
	var resellerPrice, masterPrice *float64
	if reseller.quote != nil {
		resellerPrice = &reseller.quote.TotalPrice
	}
	if master.quote != nil {
		masterPrice = &master.quote.TotalPrice
	}

	switch {
	case resellerPrice == nil && masterPrice == nil:
		return nil

	case masterPrice == nil:
		return &ratedomain.ComparisonResult{
			BestPrice:     *resellerPrice,
			APISource:     margin.SourceReseller,
			ResellerPrice: resellerPrice,
			MarginSource:  reseller.quote.APISource,
			Quote:         reseller.quote,
		}

	case resellerPrice == nil:
		return &ratedomain.ComparisonResult{
			BestPrice:    *masterPrice,
			APISource:    margin.SourceMaster,
			MasterPrice:  masterPrice,
			MarginSource: margin.SourcePlatform,
			Quote:        master.quote,
		}
	}

	diff := margin.Round2(*resellerPrice - *masterPrice)
	result := &ratedomain.ComparisonResult{
		ResellerPrice:   resellerPrice,
		MasterPrice:     masterPrice,
		PriceDifference: &diff,
	}

	if *resellerPrice < *masterPrice {
		result.BestPrice = *resellerPrice
		result.APISource = margin.SourceReseller
		result.MarginSource = reseller.quote.APISource
		result.Quote = reseller.quote
	} else {
		result.BestPrice = *masterPrice
		result.APISource = margin.SourceMaster
		result.MarginSource = margin.SourcePlatform
		result.Quote = master.quote
	}
	return result
}

func comparisonMetadata(r *ratedomain.ComparisonResult) map[string]any {
	meta := map[string]any{
		"best_price": r.BestPrice,
		"api_source": string(r.APISource),
	}
	if r.ResellerPrice != nil {
		meta["reseller_price"] = *r.ResellerPrice
	}
	if r.MasterPrice != nil {
		meta["master_price"] = *r.MasterPrice
	}
	if r.PriceDifference != nil {
		meta["price_difference"] = *r.PriceDifference
	}
	return meta
}

func (s *Service) countQuote(outcome string) {
	if s.metrics != nil {
		s.metrics.QuoteRequests.WithLabelValues(outcome).Inc()
	}
}
