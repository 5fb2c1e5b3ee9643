package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/spediralabs/spedira/pkg/db/pagination"
)

var (
	ErrInvalidWorkspace    = errors.New("invalid workspace")
	ErrInvalidAccount      = errors.New("invalid account")
	ErrInvalidName         = errors.New("invalid price list name")
	ErrInvalidWeightBand   = errors.New("weight_from must be lower than weight_to")
	ErrInvalidBasePrice    = errors.New("base_price must be non-negative")
	ErrInvalidServiceType  = errors.New("invalid service type")
	ErrOverlappingBands    = errors.New("overlapping weight bands for the same zone and service")
	ErrPriceListNotFound   = errors.New("price list not found")
	ErrEntryNotFound       = errors.New("price list entry not found")
	ErrNameConflict        = errors.New("a price list with this name already exists in the destination scope")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrArchivedPriceList   = errors.New("archived price lists cannot be modified")
)

// Actor identifies who is performing a mutation.
type Actor struct {
	AccountID    snowflake.ID
	IsReseller   bool
	IsSuperAdmin bool
}

// CloneOverrides is the closed set of fields a clone may override on the
// copy. Unknown override keys are rejected at the HTTP boundary.
type CloneOverrides struct {
	DefaultMarginPercent *float64
	CourierID            *snowflake.ID
	ValidFromNow         bool
	Status               *Status
}

type CloneRequest struct {
	WorkspaceID     snowflake.ID
	SourceID        snowflake.ID
	NewName         string
	TargetAccountID *snowflake.ID
	Overrides       CloneOverrides
}

// EntryUpsert is one row of a batched upsert. A zero ID inserts, a
// non-zero ID updates.
type EntryUpsert struct {
	ID         snowflake.ID `json:"id,omitempty"`
	WeightFrom float64      `json:"weight_from"`
	WeightTo   float64      `json:"weight_to"`

	ZoneCode   *string `json:"zone_code,omitempty"`
	PostalFrom *string `json:"postal_from,omitempty"`
	PostalTo   *string `json:"postal_to,omitempty"`
	Province   *string `json:"province,omitempty"`
	Region     *string `json:"region,omitempty"`

	ServiceType ServiceType `json:"service_type"`
	BasePrice   float64     `json:"base_price"`

	FuelSurchargePercent    float64 `json:"fuel_surcharge_percent"`
	CashOnDeliverySurcharge float64 `json:"cash_on_delivery_surcharge"`
	InsuranceRatePercent    float64 `json:"insurance_rate_percent"`
	IslandSurcharge         float64 `json:"island_surcharge"`
	ZTLSurcharge            float64 `json:"ztl_surcharge"`

	DeliveryDaysMin int `json:"delivery_days_min"`
	DeliveryDaysMax int `json:"delivery_days_max"`
}

type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

type Service interface {
	// ResolveApplicable selects the single price list that applies to an
	// account, honoring precedence client > custom > supplier > default.
	// A nil result with nil error means no list qualifies.
	ResolveApplicable(ctx context.Context, accountID, workspaceID snowflake.ID, courierID *snowflake.ID) (*PriceList, error)

	Clone(ctx context.Context, actor Actor, req CloneRequest) (*PriceList, error)
	UpsertEntries(ctx context.Context, actor Actor, priceListID snowflake.ID, entries []EntryUpsert, workspaceID snowflake.ID) (*UpsertResult, error)
	DeleteEntry(ctx context.Context, actor Actor, workspaceID, priceListID, entryID snowflake.ID) error
	Assign(ctx context.Context, actor Actor, priceListID, accountID snowflake.ID) error
	RevokeAssignment(ctx context.Context, actor Actor, priceListID, accountID snowflake.ID) error

	Get(ctx context.Context, workspaceID, id snowflake.ID) (*PriceList, error)
	List(ctx context.Context, workspaceID snowflake.ID, opts ListOptions, page pagination.Pagination) ([]*PriceList, *pagination.PageInfo, error)
	ListEntries(ctx context.Context, workspaceID, priceListID snowflake.ID) ([]PriceListEntry, error)
}
