// Package domain contains the tariff sheet model: price lists, their
// weight/zone banded entries and client assignments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ListType string

const (
	ListTypeMaster   ListType = "master"
	ListTypeSupplier ListType = "supplier"
	ListTypeCustom   ListType = "custom"
)

// Priority drives resolver precedence. It is distinct from ListType:
// a custom list assigned to a single client carries PriorityClient.
type Priority string

const (
	PriorityDefault  Priority = "default"
	PrioritySupplier Priority = "supplier"
	PriorityCustom   Priority = "custom"
	PriorityClient   Priority = "client"
)

// Rank orders priorities for resolution. Higher wins.
func (p Priority) Rank() int {
	switch p {
	case PriorityClient:
		return 3
	case PriorityCustom:
		return 2
	case PrioritySupplier:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

type ServiceType string

const (
	ServiceStandard ServiceType = "standard"
	ServiceExpress  ServiceType = "express"
	ServiceEconomy  ServiceType = "economy"
	ServiceSameDay  ServiceType = "same_day"
	ServiceNextDay  ServiceType = "next_day"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceStandard, ServiceExpress, ServiceEconomy, ServiceSameDay, ServiceNextDay:
		return true
	}
	return false
}

// PriceList is a named, versioned tariff sheet. Lists are never hard
// deleted; supersession archives them so audit linkage survives.
type PriceList struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;uniqueIndex:idx_price_lists_scope_name" json:"workspace_id"`
	CourierID   snowflake.ID `gorm:"not null;index" json:"courier_id"`
	Name        string       `gorm:"type:text;not null;uniqueIndex:idx_price_lists_scope_name" json:"name"`
	ListType    ListType     `gorm:"type:text;not null" json:"list_type"`
	Priority    Priority     `gorm:"type:text;not null" json:"priority"`
	Status      Status       `gorm:"type:text;not null;default:draft" json:"status"`
	IsGlobal    bool         `gorm:"not null;default:false" json:"is_global"`
	// AssignedToUserID scopes a client-custom list to exactly one account.
	AssignedToUserID     *snowflake.ID      `gorm:"index" json:"assigned_to_user_id,omitempty"`
	CreatedBy            snowflake.ID       `gorm:"not null" json:"created_by"`
	DefaultMarginPercent float64            `gorm:"not null;default:0" json:"default_margin_percent"`
	// MasterListID points at the source list when this one was cloned.
	MasterListID *snowflake.ID      `gorm:"index" json:"master_list_id,omitempty"`
	ValidFrom    time.Time          `gorm:"not null" json:"valid_from"`
	ValidUntil   *time.Time         `json:"valid_until,omitempty"`
	Metadata     datatypes.JSONMap  `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"not null" json:"updated_at"`
}

func (PriceList) TableName() string { return "price_lists" }

// ValidAt reports whether the validity window contains t.
func (p *PriceList) ValidAt(t time.Time) bool {
	if p.ValidFrom.After(t) {
		return false
	}
	if p.ValidUntil != nil && !p.ValidUntil.After(t) {
		return false
	}
	return true
}

// PriceListEntry is one weight/zone/service tariff row. Weight bands are
// half-open: WeightFrom <= w < WeightTo.
type PriceListEntry struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PriceListID snowflake.ID `gorm:"not null;index" json:"price_list_id"`
	WeightFrom  float64      `gorm:"not null" json:"weight_from"`
	WeightTo    float64      `gorm:"not null" json:"weight_to"`

	ZoneCode   *string `gorm:"type:text;index" json:"zone_code,omitempty"`
	PostalFrom *string `gorm:"type:text" json:"postal_from,omitempty"`
	PostalTo   *string `gorm:"type:text" json:"postal_to,omitempty"`
	Province   *string `gorm:"type:text" json:"province,omitempty"`
	Region     *string `gorm:"type:text" json:"region,omitempty"`

	ServiceType ServiceType `gorm:"type:text;not null;default:standard" json:"service_type"`
	BasePrice   float64     `gorm:"not null" json:"base_price"`

	FuelSurchargePercent    float64 `gorm:"not null;default:0" json:"fuel_surcharge_percent"`
	CashOnDeliverySurcharge float64 `gorm:"not null;default:0" json:"cash_on_delivery_surcharge"`
	InsuranceRatePercent    float64 `gorm:"not null;default:0" json:"insurance_rate_percent"`
	IslandSurcharge         float64 `gorm:"not null;default:0" json:"island_surcharge"`
	ZTLSurcharge            float64 `gorm:"not null;default:0" json:"ztl_surcharge"`

	DeliveryDaysMin int `gorm:"not null;default:0" json:"delivery_days_min"`
	DeliveryDaysMax int `gorm:"not null;default:0" json:"delivery_days_max"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PriceListEntry) TableName() string { return "price_list_entries" }

// MatchesWeight reports whether w falls inside the entry band.
func (e *PriceListEntry) MatchesWeight(w float64) bool {
	return w >= e.WeightFrom && w < e.WeightTo
}

// BandWidth is used for the narrowest-band tie-break.
func (e *PriceListEntry) BandWidth() float64 {
	return e.WeightTo - e.WeightFrom
}

// ZoneSpecificity ranks zone qualifiers, most specific first:
// postal range > zone code > province > region > unqualified.
func (e *PriceListEntry) ZoneSpecificity() int {
	switch {
	case e.PostalFrom != nil && e.PostalTo != nil:
		return 4
	case e.ZoneCode != nil:
		return 3
	case e.Province != nil:
		return 2
	case e.Region != nil:
		return 1
	}
	return 0
}

// PriceListAssignment links a custom list to a recipient account. At most
// one active (non-revoked) assignment may exist per (list, account).
type PriceListAssignment struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PriceListID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_price_list_assignments_active,where:revoked_at IS NULL" json:"price_list_id"`
	AccountID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_price_list_assignments_active" json:"account_id"`
	AssignedBy  snowflake.ID `gorm:"not null" json:"assigned_by"`
	AssignedAt  time.Time    `gorm:"not null" json:"assigned_at"`
	RevokedAt   *time.Time   `json:"revoked_at,omitempty"`
}

func (PriceListAssignment) TableName() string { return "price_list_assignments" }
