package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"github.com/spediralabs/spedira/pkg/db/option"
	"github.com/spediralabs/spedira/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricelistdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, list *pricelistdomain.PriceList) error {
	return db.WithContext(ctx).Create(list).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, list *pricelistdomain.PriceList) error {
	return db.WithContext(ctx).
		Model(&pricelistdomain.PriceList{}).
		Where("id = ? AND workspace_id = ?", list.ID, list.WorkspaceID).
		Updates(list).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*pricelistdomain.PriceList, error) {
	var p pricelistdomain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM price_lists WHERE workspace_id = ? AND id = ?`,
		workspaceID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, name string) (*pricelistdomain.PriceList, error) {
	var p pricelistdomain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM price_lists WHERE workspace_id = ? AND name = ? LIMIT 1`,
		workspaceID,
		name,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindMaster(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, at time.Time) (*pricelistdomain.PriceList, error) {
	var p pricelistdomain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM price_lists
		 WHERE workspace_id = ?
		   AND list_type = ?
		   AND status = ?
		   AND is_global = ?
		   AND valid_from <= ?
		   AND (valid_until IS NULL OR valid_until > ?)
		 ORDER BY valid_from DESC
		 LIMIT 1`,
		workspaceID,
		pricelistdomain.ListTypeMaster,
		pricelistdomain.StatusActive,
		true,
		at,
		at,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, opts pricelistdomain.ListOptions, page pagination.Pagination) ([]*pricelistdomain.PriceList, error) {
	var items []*pricelistdomain.PriceList

	query := db.WithContext(ctx).
		Model(&pricelistdomain.PriceList{}).
		Where("workspace_id = ?", workspaceID)

	if opts.CourierID != nil {
		query = query.Where("courier_id = ?", *opts.CourierID)
	}
	if opts.ListType != nil {
		query = query.Where("list_type = ?", *opts.ListType)
	}
	if opts.Status != nil {
		query = query.Where("status = ?", *opts.Status)
	}

	query = option.ApplyPagination(page).Apply(query)
	if page.PageToken != "" || page.PageSize > 0 {
		query = query.Order("created_at desc, id desc")
	} else {
		query = query.Order("created_at ASC")
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repo) ListVisibleActive(ctx context.Context, db *gorm.DB, filter pricelistdomain.VisibleFilter) ([]pricelistdomain.PriceList, error) {
	var items []pricelistdomain.PriceList

	query := db.WithContext(ctx).
		Model(&pricelistdomain.PriceList{}).
		Where("workspace_id = ?", filter.WorkspaceID).
		Where("status = ?", pricelistdomain.StatusActive).
		Where("valid_from <= ?", filter.At).
		Where("(valid_until IS NULL OR valid_until > ?)", filter.At)

	if filter.IsReseller {
		query = query.Where(
			`(is_global = ?
			  OR assigned_to_user_id = ?
			  OR created_by = ?
			  OR id IN (SELECT price_list_id FROM price_list_assignments
			            WHERE account_id = ? AND revoked_at IS NULL))`,
			true, filter.AccountID, filter.AccountID, filter.AccountID,
		)
	} else {
		query = query.Where(
			`(is_global = ?
			  OR assigned_to_user_id = ?
			  OR id IN (SELECT price_list_id FROM price_list_assignments
			            WHERE account_id = ? AND revoked_at IS NULL))`,
			true, filter.AccountID, filter.AccountID,
		)
	}

	if filter.CourierID != nil {
		query = query.Where("courier_id = ?", *filter.CourierID)
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *pricelistdomain.PriceListEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) UpdateEntry(ctx context.Context, db *gorm.DB, entry *pricelistdomain.PriceListEntry) error {
	return db.WithContext(ctx).
		Model(&pricelistdomain.PriceListEntry{}).
		Where("id = ? AND price_list_id = ?", entry.ID, entry.PriceListID).
		Updates(entry).Error
}

func (r *repo) DeleteEntry(ctx context.Context, db *gorm.DB, priceListID, entryID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ? AND price_list_id = ?", entryID, priceListID).
		Delete(&pricelistdomain.PriceListEntry{}).Error
}

func (r *repo) FindEntry(ctx context.Context, db *gorm.DB, priceListID, entryID snowflake.ID) (*pricelistdomain.PriceListEntry, error) {
	var e pricelistdomain.PriceListEntry
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM price_list_entries WHERE price_list_id = ? AND id = ?`,
		priceListID,
		entryID,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) ([]pricelistdomain.PriceListEntry, error) {
	var items []pricelistdomain.PriceListEntry
	err := db.WithContext(ctx).
		Model(&pricelistdomain.PriceListEntry{}).
		Where("price_list_id = ?", priceListID).
		Order("weight_from ASC, weight_to ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertAssignment(ctx context.Context, db *gorm.DB, a *pricelistdomain.PriceListAssignment) error {
	return db.WithContext(ctx).Create(a).Error
}

func (r *repo) FindActiveAssignment(ctx context.Context, db *gorm.DB, priceListID, accountID snowflake.ID) (*pricelistdomain.PriceListAssignment, error) {
	var a pricelistdomain.PriceListAssignment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM price_list_assignments
		 WHERE price_list_id = ? AND account_id = ? AND revoked_at IS NULL
		 LIMIT 1`,
		priceListID,
		accountID,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) RevokeAssignment(ctx context.Context, db *gorm.DB, priceListID, accountID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&pricelistdomain.PriceListAssignment{}).
		Where("price_list_id = ? AND account_id = ? AND revoked_at IS NULL", priceListID, accountID).
		Update("revoked_at", at).Error
}
