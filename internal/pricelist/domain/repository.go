package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spediralabs/spedira/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListOptions struct {
	CourierID *snowflake.ID
	ListType  *ListType
	Status    *Status
}

// VisibleFilter narrows the active-list query to what one account may
// see: global lists, lists assigned to it, and lists it authored when it
// is a reseller.
type VisibleFilter struct {
	WorkspaceID snowflake.ID
	AccountID   snowflake.ID
	IsReseller  bool
	CourierID   *snowflake.ID
	At          time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, list *PriceList) error
	Update(ctx context.Context, db *gorm.DB, list *PriceList) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*PriceList, error)
	FindByName(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, name string) (*PriceList, error)
	// FindMaster returns the active global master list, most recent
	// valid_from first. Backing query for the master list cache.
	FindMaster(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, at time.Time) (*PriceList, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, opts ListOptions, page pagination.Pagination) ([]*PriceList, error)
	ListVisibleActive(ctx context.Context, db *gorm.DB, filter VisibleFilter) ([]PriceList, error)

	InsertEntry(ctx context.Context, db *gorm.DB, entry *PriceListEntry) error
	UpdateEntry(ctx context.Context, db *gorm.DB, entry *PriceListEntry) error
	DeleteEntry(ctx context.Context, db *gorm.DB, priceListID, entryID snowflake.ID) error
	FindEntry(ctx context.Context, db *gorm.DB, priceListID, entryID snowflake.ID) (*PriceListEntry, error)
	ListEntries(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) ([]PriceListEntry, error)

	InsertAssignment(ctx context.Context, db *gorm.DB, a *PriceListAssignment) error
	FindActiveAssignment(ctx context.Context, db *gorm.DB, priceListID, accountID snowflake.ID) (*PriceListAssignment, error)
	RevokeAssignment(ctx context.Context, db *gorm.DB, priceListID, accountID snowflake.ID, at time.Time) error
}
