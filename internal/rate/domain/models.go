// Package domain defines quoting inputs and outputs for the rate engine.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	"github.com/spediralabs/spedira/internal/margin"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
)

var (
	ErrInvalidWeight = errors.New("weight must be positive")
	ErrNotReseller   = errors.New("account is not a reseller")
	// ErrUnavailable means no rate source produced a usable price. Callers
	// must surface "price unavailable", never fabricate one.
	ErrUnavailable = errors.New("no rate source available")
)

type Destination struct {
	Zip      string `json:"zip,omitempty"`
	Province string `json:"province,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
}

type QuoteOptions struct {
	DeclaredValue  *float64 `json:"declared_value,omitempty"`
	CashOnDelivery *float64 `json:"cash_on_delivery,omitempty"`
	Insurance      bool     `json:"insurance,omitempty"`
}

type QuoteParams struct {
	Weight      float64                     `json:"weight"`
	Volume      *float64                    `json:"volume,omitempty"`
	Destination Destination                 `json:"destination"`
	CourierID   *snowflake.ID               `json:"courier_id,omitempty"`
	ServiceType pricelistdomain.ServiceType `json:"service_type,omitempty"`
	Options     QuoteOptions                `json:"options"`
}

// PriceQuote is the priced outcome of the single-list path.
type PriceQuote struct {
	TotalPrice  float64            `json:"total_price"`
	BasePrice   float64            `json:"base_price"`
	Surcharges  map[string]float64 `json:"surcharges,omitempty"`
	Currency    string             `json:"currency"`
	PriceListID snowflake.ID       `json:"price_list_id"`
	EntryID     snowflake.ID       `json:"entry_id"`

	DeliveryDaysMin int `json:"delivery_days_min,omitempty"`
	DeliveryDaysMax int `json:"delivery_days_max,omitempty"`

	// APISource feeds margin computation downstream.
	APISource margin.Source `json:"api_source"`
}

// ComparisonResult reports the dual-source decision with its diff, kept
// for pricing transparency toward resellers.
type ComparisonResult struct {
	BestPrice float64       `json:"best_price"`
	APISource margin.Source `json:"api_source"` // reseller | master | default

	ResellerPrice   *float64 `json:"reseller_price,omitempty"`
	MasterPrice     *float64 `json:"master_price,omitempty"`
	PriceDifference *float64 `json:"price_difference,omitempty"` // reseller - master, signed

	// MarginSource tags the winning leg's cost model for margin purposes:
	// a reseller-owned win is never margin-calculable by the platform.
	MarginSource margin.Source `json:"margin_source"`

	Quote *PriceQuote `json:"quote,omitempty"`
}

// RawRate is the normalized answer of an external courier adapter.
type RawRate struct {
	TotalPrice      float64 `json:"total_price"`
	CarrierCode     string  `json:"carrier_code"`
	ContractCode    string  `json:"contract_code"`
	Currency        string  `json:"currency"`
	DeliveryDaysMin int     `json:"delivery_days_min"`
	DeliveryDaysMax int     `json:"delivery_days_max"`
}

// RateSource is the port onto courier wire adapters, used when an
// account brings its own contract.
type RateSource interface {
	Quote(ctx context.Context, account *accountdomain.Account, params QuoteParams) (*RawRate, error)
}

type Service interface {
	// PriceWithRules prices a shipment against the single applicable list.
	// A nil quote with nil error means no list or entry matches.
	PriceWithRules(ctx context.Context, accountID, workspaceID snowflake.ID, params QuoteParams, priceListID *snowflake.ID) (*PriceQuote, error)

	// BestPriceForReseller runs the dual-source comparison. Both legs are
	// queried concurrently; one failing leg degrades to the other.
	BestPriceForReseller(ctx context.Context, accountID, workspaceID snowflake.ID, params QuoteParams) (*ComparisonResult, error)
}
