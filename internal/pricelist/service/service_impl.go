package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"github.com/spediralabs/spedira/internal/clock"
	"github.com/spediralabs/spedira/internal/governance"
	"github.com/spediralabs/spedira/internal/margin"
	"github.com/spediralabs/spedira/internal/mastercache"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"github.com/spediralabs/spedira/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       pricelistdomain.Repository
	Accounts   accountdomain.Resolver
	Cache      mastercache.Cache
	Governance *governance.Validator
	Audit      auditdomain.Recorder `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       pricelistdomain.Repository
	accounts   accountdomain.Resolver
	cache      mastercache.Cache
	governance *governance.Validator
	audit      auditdomain.Recorder
}

func New(p Params) pricelistdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("pricelist.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		accounts:   p.Accounts,
		cache:      p.Cache,
		governance: p.Governance,
		audit:      p.Audit,
	}
}

// ResolveApplicable selects the single list that prices a shipment for
// this account. Candidate lists are ranked client > custom > supplier;
// the global master list is the fallback and is served through the
// read-through cache to avoid re-scanning the default tariff per quote.
func (s *Service) ResolveApplicable(ctx context.Context, accountID, workspaceID snowflake.ID, courierID *snowflake.ID) (*pricelistdomain.PriceList, error) {
	if workspaceID == 0 {
		return nil, pricelistdomain.ErrInvalidWorkspace
	}

	account, err := s.accounts.Resolve(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pricelistdomain.ErrInvalidAccount
	}

	now := s.clock.Now(ctx)

	candidates, err := s.repo.ListVisibleActive(ctx, s.db, pricelistdomain.VisibleFilter{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		IsReseller:  account.IsReseller,
		CourierID:   courierID,
		At:          now,
	})
	if err != nil {
		return nil, err
	}

	if best := pickBest(candidates); best != nil {
		return best, nil
	}

	// No specific list: fall back to the cached master tariff.
	master, err := s.cache.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if master == nil || !master.ValidAt(now) {
		return nil, nil
	}
	if courierID != nil && master.CourierID != *courierID {
		return nil, nil
	}
	return master, nil
}

// pickBest ranks non-master candidates by priority, ties broken by the
// most recent valid_from.
func pickBest(candidates []pricelistdomain.PriceList) *pricelistdomain.PriceList {
	specific := make([]pricelistdomain.PriceList, 0, len(candidates))
	for _, c := range candidates {
		if c.ListType == pricelistdomain.ListTypeMaster {
			continue
		}
		specific = append(specific, c)
	}
	if len(specific) == 0 {
		return nil
	}

	sort.SliceStable(specific, func(i, j int) bool {
		ri, rj := specific[i].Priority.Rank(), specific[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return specific[i].ValidFrom.After(specific[j].ValidFrom)
	})
	return &specific[0]
}

func (s *Service) Get(ctx context.Context, workspaceID, id snowflake.ID) (*pricelistdomain.PriceList, error) {
	list, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, pricelistdomain.ErrPriceListNotFound
	}
	return list, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// List pages through a workspace's price lists, newest first.
func (s *Service) List(ctx context.Context, workspaceID snowflake.ID, opts pricelistdomain.ListOptions, page pagination.Pagination) ([]*pricelistdomain.PriceList, *pagination.PageInfo, error) {
	if workspaceID == 0 {
		return nil, nil, pricelistdomain.ErrInvalidWorkspace
	}
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	if page.PageSize > maxPageSize {
		page.PageSize = maxPageSize
	}

	items, err := s.repo.List(ctx, s.db, workspaceID, opts, page)
	if err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(items, int32(page.PageSize), func(l *pricelistdomain.PriceList) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        l.ID.String(),
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if info != nil && info.HasMore {
		items = items[:page.PageSize]
	}
	return items, info, nil
}

func (s *Service) ListEntries(ctx context.Context, workspaceID, priceListID snowflake.ID) ([]pricelistdomain.PriceListEntry, error) {
	list, err := s.repo.FindByID(ctx, s.db, workspaceID, priceListID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, pricelistdomain.ErrPriceListNotFound
	}
	return s.repo.ListEntries(ctx, s.db, priceListID)
}

// Clone duplicates a list and its entries into a new list carrying
// master_list_id = source. The name-conflict check is a courtesy; the
// store's unique (workspace_id, name) index is the real backstop against
// racing clones.
func (s *Service) Clone(ctx context.Context, actor pricelistdomain.Actor, req pricelistdomain.CloneRequest) (*pricelistdomain.PriceList, error) {
	if !actor.IsSuperAdmin {
		return nil, pricelistdomain.ErrPermissionDenied
	}

	name := strings.TrimSpace(req.NewName)
	if name == "" {
		return nil, pricelistdomain.ErrInvalidName
	}

	source, err := s.repo.FindByID(ctx, s.db, req.WorkspaceID, req.SourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, pricelistdomain.ErrPriceListNotFound
	}

	existing, err := s.repo.FindByName(ctx, s.db, req.WorkspaceID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pricelistdomain.ErrNameConflict
	}

	now := s.clock.Now(ctx)
	clone := buildClone(source, name, req, actor, s.genID.Generate(), now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, clone); err != nil {
			return err
		}

		entries, err := s.repo.ListEntries(ctx, tx, source.ID)
		if err != nil {
			return err
		}
		for i := range entries {
			entry := entries[i]
			entry.ID = s.genID.Generate()
			entry.PriceListID = clone.ID
			entry.CreatedAt = now
			entry.UpdatedAt = now
			if err := s.repo.InsertEntry(ctx, tx, &entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pricelistdomain.ErrNameConflict
		}
		return nil, err
	}

	// Invalidate-before-acknowledge: the next master resolution must not
	// serve the pre-clone aggregate.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error("cache invalidation after clone failed", zap.Error(err))
		return nil, err
	}

	if s.audit != nil {
		actorID := actor.AccountID
		s.audit.Record(ctx, auditdomain.EventPriceListCloned, &clone.ID, &actorID,
			"cloned price list "+source.Name+" as "+clone.Name,
			map[string]any{
				"source_id":      source.ID.String(),
				"new_name":       clone.Name,
				"target_account": formatID(req.TargetAccountID),
			},
			auditdomain.SeverityInfo,
		)
	}

	return clone, nil
}

func buildClone(source *pricelistdomain.PriceList, name string, req pricelistdomain.CloneRequest, actor pricelistdomain.Actor, id snowflake.ID, now time.Time) *pricelistdomain.PriceList {
	clone := *source
	clone.ID = id
	clone.Name = name
	clone.MasterListID = &source.ID
	clone.CreatedBy = actor.AccountID
	clone.Status = pricelistdomain.StatusDraft
	clone.IsGlobal = false
	clone.CreatedAt = now
	clone.UpdatedAt = now
	clone.ValidFrom = source.ValidFrom

	// A clone is never itself a master list; it descends from one.
	clone.ListType = pricelistdomain.ListTypeCustom
	clone.Priority = pricelistdomain.PriorityCustom
	clone.AssignedToUserID = nil

	if req.TargetAccountID != nil {
		clone.Priority = pricelistdomain.PriorityClient
		clone.AssignedToUserID = req.TargetAccountID
	}

	if req.Overrides.DefaultMarginPercent != nil {
		clone.DefaultMarginPercent = *req.Overrides.DefaultMarginPercent
	}
	if req.Overrides.CourierID != nil {
		clone.CourierID = *req.Overrides.CourierID
	}
	if req.Overrides.ValidFromNow {
		clone.ValidFrom = now
	}
	if req.Overrides.Status != nil {
		clone.Status = *req.Overrides.Status
	}

	return &clone
}

// UpsertEntries validates the whole batch before touching the store:
// either every row is acceptable or nothing is written.
func (s *Service) UpsertEntries(ctx context.Context, actor pricelistdomain.Actor, priceListID snowflake.ID, entries []pricelistdomain.EntryUpsert, workspaceID snowflake.ID) (*pricelistdomain.UpsertResult, error) {
	if workspaceID == 0 {
		return nil, pricelistdomain.ErrInvalidWorkspace
	}
	if err := validateBatch(entries); err != nil {
		return nil, err
	}

	list, err := s.repo.FindByID(ctx, s.db, workspaceID, priceListID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, pricelistdomain.ErrPriceListNotFound
	}
	if list.Status == pricelistdomain.StatusArchived {
		return nil, pricelistdomain.ErrArchivedPriceList
	}
	if !actor.IsSuperAdmin && list.CreatedBy != actor.AccountID {
		return nil, pricelistdomain.ErrPermissionDenied
	}

	// Reseller-authored custom lists go through pricing governance. The
	// charged price for an entry is its base adjusted by the list margin.
	if list.ListType == pricelistdomain.ListTypeCustom && actor.IsReseller && !actor.IsSuperAdmin {
		for _, e := range entries {
			final := margin.Round2(e.BasePrice * (1 + list.DefaultMarginPercent/100))
			if err := s.governance.Validate(governance.Request{
				ResellerID:   actor.AccountID,
				BasePrice:    e.BasePrice,
				FinalPrice:   final,
				IsSuperAdmin: actor.IsSuperAdmin,
			}); err != nil {
				return nil, err
			}
		}
	}

	now := s.clock.Now(ctx)
	result := &pricelistdomain.UpsertResult{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if e.ID == 0 {
				entry := entryFromUpsert(e, priceListID, s.genID.Generate(), now)
				entry.CreatedAt = now
				if err := s.repo.InsertEntry(ctx, tx, entry); err != nil {
					return err
				}
				result.Inserted++
				continue
			}

			existing, err := s.repo.FindEntry(ctx, tx, priceListID, e.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return pricelistdomain.ErrEntryNotFound
			}
			entry := entryFromUpsert(e, priceListID, e.ID, now)
			entry.CreatedAt = existing.CreatedAt
			if err := s.repo.UpdateEntry(ctx, tx, entry); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A mutated master/global list must not be served stale.
	if list.ListType == pricelistdomain.ListTypeMaster || list.IsGlobal {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Error("cache invalidation after entry upsert failed", zap.Error(err))
			return nil, err
		}
	}

	if s.audit != nil {
		actorID := actor.AccountID
		s.audit.Record(ctx, auditdomain.EventEntriesUpserted, &priceListID, &actorID,
			"upserted price list entries",
			map[string]any{
				"inserted": result.Inserted,
				"updated":  result.Updated,
			},
			auditdomain.SeverityInfo,
		)
	}

	return result, nil
}

func entryFromUpsert(e pricelistdomain.EntryUpsert, priceListID, id snowflake.ID, now time.Time) *pricelistdomain.PriceListEntry {
	return &pricelistdomain.PriceListEntry{
		ID:          id,
		PriceListID: priceListID,
		WeightFrom:  e.WeightFrom,
		WeightTo:    e.WeightTo,
		ZoneCode:    e.ZoneCode,
		PostalFrom:  e.PostalFrom,
		PostalTo:    e.PostalTo,
		Province:    e.Province,
		Region:      e.Region,
		ServiceType: e.ServiceType,
		BasePrice:   e.BasePrice,

		FuelSurchargePercent:    e.FuelSurchargePercent,
		CashOnDeliverySurcharge: e.CashOnDeliverySurcharge,
		InsuranceRatePercent:    e.InsuranceRatePercent,
		IslandSurcharge:         e.IslandSurcharge,
		ZTLSurcharge:            e.ZTLSurcharge,

		DeliveryDaysMin: e.DeliveryDaysMin,
		DeliveryDaysMax: e.DeliveryDaysMax,
		UpdatedAt:       now,
	}
}

func validateBatch(entries []pricelistdomain.EntryUpsert) error {
	for i, e := range entries {
		if e.WeightFrom >= e.WeightTo {
			return pricelistdomain.ErrInvalidWeightBand
		}
		if e.BasePrice < 0 {
			return pricelistdomain.ErrInvalidBasePrice
		}
		if !e.ServiceType.Valid() {
			return pricelistdomain.ErrInvalidServiceType
		}

		for j := 0; j < i; j++ {
			other := entries[j]
			if sameZone(e, other) && e.ServiceType == other.ServiceType &&
				e.WeightFrom < other.WeightTo && other.WeightFrom < e.WeightTo {
				return pricelistdomain.ErrOverlappingBands
			}
		}
	}
	return nil
}

func sameZone(a, b pricelistdomain.EntryUpsert) bool {
	return strPtrEq(a.ZoneCode, b.ZoneCode) &&
		strPtrEq(a.PostalFrom, b.PostalFrom) &&
		strPtrEq(a.PostalTo, b.PostalTo) &&
		strPtrEq(a.Province, b.Province) &&
		strPtrEq(a.Region, b.Region)
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteEntry removes one tariff row. Entries are deleted independently
// of their list; lists themselves are only ever archived.
func (s *Service) DeleteEntry(ctx context.Context, actor pricelistdomain.Actor, workspaceID, priceListID, entryID snowflake.ID) error {
	if workspaceID == 0 {
		return pricelistdomain.ErrInvalidWorkspace
	}

	list, err := s.repo.FindByID(ctx, s.db, workspaceID, priceListID)
	if err != nil {
		return err
	}
	if list == nil {
		return pricelistdomain.ErrPriceListNotFound
	}
	if list.Status == pricelistdomain.StatusArchived {
		return pricelistdomain.ErrArchivedPriceList
	}
	if !actor.IsSuperAdmin && list.CreatedBy != actor.AccountID {
		return pricelistdomain.ErrPermissionDenied
	}

	entry, err := s.repo.FindEntry(ctx, s.db, priceListID, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return pricelistdomain.ErrEntryNotFound
	}

	if err := s.repo.DeleteEntry(ctx, s.db, priceListID, entryID); err != nil {
		return err
	}

	if list.ListType == pricelistdomain.ListTypeMaster || list.IsGlobal {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Error("cache invalidation after entry delete failed", zap.Error(err))
			return err
		}
	}

	if s.audit != nil {
		actorID := actor.AccountID
		s.audit.RecordChange(ctx, auditdomain.EventEntryDeleted, &priceListID, &actorID,
			"deleted price list entry", entrySnapshot(entry), nil)
	}
	return nil
}

// entrySnapshot is the audit old_value of a deleted row: enough to
// reconstruct what was charged, not the full record.
func entrySnapshot(e *pricelistdomain.PriceListEntry) map[string]any {
	snap := map[string]any{
		"id":           e.ID.String(),
		"weight_from":  e.WeightFrom,
		"weight_to":    e.WeightTo,
		"service_type": string(e.ServiceType),
		"base_price":   e.BasePrice,
	}
	if e.ZoneCode != nil {
		snap["zone_code"] = *e.ZoneCode
	}
	if e.Province != nil {
		snap["province"] = *e.Province
	}
	return snap
}

// Assign links a custom list to a recipient account. A duplicate active
// assignment is a no-op, not an error.
func (s *Service) Assign(ctx context.Context, actor pricelistdomain.Actor, priceListID, accountID snowflake.ID) error {
	if !actor.IsSuperAdmin && !actor.IsReseller {
		return pricelistdomain.ErrPermissionDenied
	}

	existing, err := s.repo.FindActiveAssignment(ctx, s.db, priceListID, accountID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.clock.Now(ctx)
	err = s.repo.InsertAssignment(ctx, s.db, &pricelistdomain.PriceListAssignment{
		ID:          s.genID.Generate(),
		PriceListID: priceListID,
		AccountID:   accountID,
		AssignedBy:  actor.AccountID,
		AssignedAt:  now,
	})
	if err != nil {
		// Lost a race with an identical concurrent Assign: the partial
		// unique index on active assignments caught it. Same outcome.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	if s.audit != nil {
		actorID := actor.AccountID
		s.audit.Record(ctx, auditdomain.EventAssignmentCreated, &priceListID, &actorID,
			"assigned price list to account",
			map[string]any{"account_id": accountID.String()},
			auditdomain.SeverityInfo,
		)
	}
	return nil
}

func (s *Service) RevokeAssignment(ctx context.Context, actor pricelistdomain.Actor, priceListID, accountID snowflake.ID) error {
	if !actor.IsSuperAdmin && !actor.IsReseller {
		return pricelistdomain.ErrPermissionDenied
	}

	if err := s.repo.RevokeAssignment(ctx, s.db, priceListID, accountID, s.clock.Now(ctx)); err != nil {
		return err
	}

	if s.audit != nil {
		actorID := actor.AccountID
		s.audit.Record(ctx, auditdomain.EventAssignmentRevoked, &priceListID, &actorID,
			"revoked price list assignment",
			map[string]any{"account_id": accountID.String()},
			auditdomain.SeverityInfo,
		)
	}
	return nil
}

func formatID(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
