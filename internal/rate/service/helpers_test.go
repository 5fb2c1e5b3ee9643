package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/spediralabs/spedira/internal/margin"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func entry(id int64, from, to float64) pricelistdomain.PriceListEntry {
	return pricelistdomain.PriceListEntry{
		ID:          snowflake.ID(id),
		WeightFrom:  from,
		WeightTo:    to,
		ServiceType: pricelistdomain.ServiceStandard,
		BasePrice:   10,
	}
}

func TestMatchEntryHalfOpenBands(t *testing.T) {
	entries := []pricelistdomain.PriceListEntry{
		entry(1, 0, 5),
		entry(2, 5, 10),
	}

	got := matchEntry(entries, ratedomain.QuoteParams{Weight: 5})
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(2), got.ID, "boundary weight belongs to the upper band")

	got = matchEntry(entries, ratedomain.QuoteParams{Weight: 4.999})
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(1), got.ID)

	assert.Nil(t, matchEntry(entries, ratedomain.QuoteParams{Weight: 10}))
}

func TestMatchEntryPrefersNarrowestBand(t *testing.T) {
	wide := entry(1, 0, 30)
	narrow := entry(2, 0, 5)

	got := matchEntry([]pricelistdomain.PriceListEntry{wide, narrow}, ratedomain.QuoteParams{Weight: 2})
	require.NotNil(t, got)
	assert.Equal(t, narrow.ID, got.ID)
}

func TestMatchEntryPrefersMostSpecificZone(t *testing.T) {
	national := entry(1, 0, 10)
	provincial := entry(2, 0, 10)
	provincial.Province = strPtr("MI")
	postal := entry(3, 0, 10)
	postal.PostalFrom = strPtr("20100")
	postal.PostalTo = strPtr("20199")

	entries := []pricelistdomain.PriceListEntry{national, provincial, postal}
	got := matchEntry(entries, ratedomain.QuoteParams{
		Weight:      1,
		Destination: ratedomain.Destination{Zip: "20121", Province: "MI"},
	})
	require.NotNil(t, got)
	assert.Equal(t, postal.ID, got.ID)

	// Outside the postal range the provincial entry wins.
	got = matchEntry(entries, ratedomain.QuoteParams{
		Weight:      1,
		Destination: ratedomain.Destination{Zip: "20900", Province: "MI"},
	})
	require.NotNil(t, got)
	assert.Equal(t, provincial.ID, got.ID)
}

func TestMatchEntryFiltersByService(t *testing.T) {
	express := entry(1, 0, 10)
	express.ServiceType = pricelistdomain.ServiceExpress

	got := matchEntry([]pricelistdomain.PriceListEntry{express}, ratedomain.QuoteParams{Weight: 1})
	assert.Nil(t, got, "standard shipment must not match an express row")

	got = matchEntry([]pricelistdomain.PriceListEntry{express}, ratedomain.QuoteParams{
		Weight:      1,
		ServiceType: pricelistdomain.ServiceExpress,
	})
	require.NotNil(t, got)
}

func TestZoneMatchesRequiresAllQualifiers(t *testing.T) {
	e := entry(1, 0, 10)
	e.Province = strPtr("CA")
	e.Region = strPtr("Sardegna")

	assert.True(t, zoneMatches(&e, ratedomain.Destination{Province: "ca", Region: "sardegna"}))
	assert.False(t, zoneMatches(&e, ratedomain.Destination{Province: "CA", Region: "Lazio"}))
	assert.False(t, zoneMatches(&e, ratedomain.Destination{Region: "Sardegna"}))
}

func TestComputeQuoteMarginAndSurcharges(t *testing.T) {
	list := &pricelistdomain.PriceList{
		ID:                   snowflake.ID(10),
		DefaultMarginPercent: 20,
	}
	e := entry(1, 0, 10)
	e.BasePrice = 10
	e.FuelSurchargePercent = 5
	e.CashOnDeliverySurcharge = 3.5
	e.InsuranceRatePercent = 1
	e.IslandSurcharge = 7
	e.ZTLSurcharge = 2

	islands := map[string]bool{"CA": true}
	ztl := map[string]bool{"09124": true}

	q := computeQuote(list, &e, ratedomain.QuoteParams{
		Weight:      1,
		Destination: ratedomain.Destination{Zip: "09124", Province: "ca"},
		Options: ratedomain.QuoteOptions{
			CashOnDelivery: floatPtr(50),
			Insurance:      true,
			DeclaredValue:  floatPtr(200),
		},
	}, islands, ztl, margin.SourcePlatform)

	// 10 * 1.20 + 0.50 fuel + 3.50 cod + 2.00 insurance + 7 island + 2 ztl
	assert.Equal(t, 27.0, q.TotalPrice)
	assert.Equal(t, 0.5, q.Surcharges["fuel"])
	assert.Equal(t, 3.5, q.Surcharges["cash_on_delivery"])
	assert.Equal(t, 2.0, q.Surcharges["insurance"])
	assert.Equal(t, 7.0, q.Surcharges["island"])
	assert.Equal(t, 2.0, q.Surcharges["ztl"])
	assert.Equal(t, "EUR", q.Currency)
	assert.Equal(t, list.ID, q.PriceListID)
}

func TestComputeQuoteNoOptionalSurcharges(t *testing.T) {
	list := &pricelistdomain.PriceList{DefaultMarginPercent: 15.5}
	e := entry(1, 0, 10)
	e.BasePrice = 8.4
	e.CashOnDeliverySurcharge = 3.5
	e.IslandSurcharge = 7

	q := computeQuote(list, &e, ratedomain.QuoteParams{
		Weight:      1,
		Destination: ratedomain.Destination{Province: "MI"},
	}, map[string]bool{"CA": true}, nil, margin.SourcePlatform)

	// 8.4 * 1.155 = 9.702, rounded half-up to cents.
	assert.Equal(t, 9.7, q.TotalPrice)
	assert.Empty(t, q.Surcharges)
}

func TestCombinePicksLowerAndReportsDiff(t *testing.T) {
	reseller := sourceOutcome{quote: &ratedomain.PriceQuote{TotalPrice: 12, APISource: margin.SourceResellerOwn}}
	master := sourceOutcome{quote: &ratedomain.PriceQuote{TotalPrice: 10.5, APISource: margin.SourceMaster}}

	r := combine(reseller, master)
	require.NotNil(t, r)
	assert.Equal(t, 10.5, r.BestPrice)
	assert.Equal(t, margin.SourceMaster, r.APISource)
	assert.Equal(t, margin.SourcePlatform, r.MarginSource)
	require.NotNil(t, r.PriceDifference)
	assert.Equal(t, 1.5, *r.PriceDifference)
}

func TestCombineTieFavorsMaster(t *testing.T) {
	reseller := sourceOutcome{quote: &ratedomain.PriceQuote{TotalPrice: 10, APISource: margin.SourceResellerOwn}}
	master := sourceOutcome{quote: &ratedomain.PriceQuote{TotalPrice: 10, APISource: margin.SourceMaster}}

	r := combine(reseller, master)
	require.NotNil(t, r)
	assert.Equal(t, margin.SourceMaster, r.APISource)
	assert.Equal(t, 0.0, *r.PriceDifference)
}

func TestCombineSingleLeg(t *testing.T) {
	reseller := sourceOutcome{quote: &ratedomain.PriceQuote{TotalPrice: 9, APISource: margin.SourceByocOwn}}

	r := combine(reseller, sourceOutcome{})
	require.NotNil(t, r)
	assert.Equal(t, 9.0, r.BestPrice)
	assert.Equal(t, margin.SourceReseller, r.APISource)
	assert.Equal(t, margin.SourceByocOwn, r.MarginSource)
	assert.Nil(t, r.MasterPrice)
	assert.Nil(t, r.PriceDifference)

	assert.Nil(t, combine(sourceOutcome{}, sourceOutcome{}))
}
