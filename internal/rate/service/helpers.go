package service

import (
	"sort"
	"strings"

	"github.com/spediralabs/spedira/internal/margin"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
)

// matchEntry selects the tariff row for a shipment. Ambiguous overlaps
// resolve deterministically: narrowest weight band first, then the most
// specific zone qualifier, then the lowest id.
func matchEntry(entries []pricelistdomain.PriceListEntry, params ratedomain.QuoteParams) *pricelistdomain.PriceListEntry {
	service := params.ServiceType
	if service == "" {
		service = pricelistdomain.ServiceStandard
	}

	matches := make([]pricelistdomain.PriceListEntry, 0, 4)
	for _, e := range entries {
		if e.ServiceType != service {
			continue
		}
		if !e.MatchesWeight(params.Weight) {
			continue
		}
		if !zoneMatches(&e, params.Destination) {
			continue
		}
		matches = append(matches, e)
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		wi, wj := matches[i].BandWidth(), matches[j].BandWidth()
		if wi != wj {
			return wi < wj
		}
		si, sj := matches[i].ZoneSpecificity(), matches[j].ZoneSpecificity()
		if si != sj {
			return si > sj
		}
		return matches[i].ID < matches[j].ID
	})
	return &matches[0]
}

// zoneMatches requires every qualifier set on the entry to match the
// destination. An unqualified entry matches everywhere.
func zoneMatches(e *pricelistdomain.PriceListEntry, dest ratedomain.Destination) bool {
	if e.PostalFrom != nil && e.PostalTo != nil {
		if dest.Zip == "" || dest.Zip < *e.PostalFrom || dest.Zip > *e.PostalTo {
			return false
		}
	}
	if e.ZoneCode != nil && !strings.EqualFold(*e.ZoneCode, dest.Country) {
		return false
	}
	if e.Province != nil && !strings.EqualFold(*e.Province, dest.Province) {
		return false
	}
	if e.Region != nil && !strings.EqualFold(*e.Region, dest.Region) {
		return false
	}
	return true
}

// computeQuote applies the list margin and the entry's surcharge formulas.
// Islands and limited-traffic zones come from configuration, not code.
func computeQuote(
	list *pricelistdomain.PriceList,
	entry *pricelistdomain.PriceListEntry,
	params ratedomain.QuoteParams,
	islandProvinces map[string]bool,
	ztlZips map[string]bool,
	apiSource margin.Source,
) *ratedomain.PriceQuote {
	base := entry.BasePrice
	subtotal := base * (1 + list.DefaultMarginPercent/100)

	surcharges := make(map[string]float64)
	if entry.FuelSurchargePercent > 0 {
		surcharges["fuel"] = margin.Round2(base * entry.FuelSurchargePercent / 100)
	}
	if params.Options.CashOnDelivery != nil && entry.CashOnDeliverySurcharge > 0 {
		surcharges["cash_on_delivery"] = entry.CashOnDeliverySurcharge
	}
	if params.Options.Insurance && params.Options.DeclaredValue != nil && entry.InsuranceRatePercent > 0 {
		surcharges["insurance"] = margin.Round2(*params.Options.DeclaredValue * entry.InsuranceRatePercent / 100)
	}
	if entry.IslandSurcharge > 0 && islandProvinces[strings.ToUpper(params.Destination.Province)] {
		surcharges["island"] = entry.IslandSurcharge
	}
	if entry.ZTLSurcharge > 0 && ztlZips[params.Destination.Zip] {
		surcharges["ztl"] = entry.ZTLSurcharge
	}

	total := subtotal
	for _, v := range surcharges {
		total += v
	}

	return &ratedomain.PriceQuote{
		TotalPrice:      margin.Round2(total),
		BasePrice:       base,
		Surcharges:      surcharges,
		Currency:        "EUR",
		PriceListID:     list.ID,
		EntryID:         entry.ID,
		DeliveryDaysMin: entry.DeliveryDaysMin,
		DeliveryDaysMax: entry.DeliveryDaysMax,
		APISource:       apiSource,
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = true
	}
	return set
}
