// Package margin computes the platform or reseller earning on a priced
// shipment. Pure functions only; a margin that cannot be determined is a
// typed non-result, never an error and never zero.
package margin

import "math"

// Source tags which rate source produced the final price.
type Source string

const (
	SourcePlatform    Source = "platform"
	SourceMaster      Source = "master"
	SourceReseller    Source = "reseller"
	SourceDefault     Source = "default"
	SourceByocOwn     Source = "byoc_own"
	SourceResellerOwn Source = "reseller_own"
)

// Reason explains why a margin is or is not calculable.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonMissingFinalPrice  Reason = "missing_final_price"
	ReasonNotApplicableModel Reason = "not_applicable_for_model"
	ReasonMissingCostData    Reason = "missing_cost_data"
)

// CostSource names which cost signal backed the computation.
type CostSource string

const (
	CostSourceProvider  CostSource = "provider_cost"
	CostSourceBasePrice CostSource = "base_price"
)

// Result is the outcome of a margin computation.
// Invariant: Calculable == false implies Margin and MarginPercent are nil,
// and the converse.
type Result struct {
	Margin        *float64   `json:"margin"`
	MarginPercent *float64   `json:"margin_percent"`
	Calculable    bool       `json:"is_calculable"`
	Reason        Reason     `json:"reason"`
	CostSource    CostSource `json:"cost_source,omitempty"`
}

// costCandidate makes the cost fallback order a first-class artifact:
// candidates are evaluated in sequence and the first present-and-positive
// value wins.
type costCandidate struct {
	name    CostSource
	extract func(providerCost, basePrice *float64) *float64
}

var costCandidates = []costCandidate{
	{CostSourceProvider, func(p, _ *float64) *float64 { return p }},
	{CostSourceBasePrice, func(_, b *float64) *float64 { return b }},
}

// Compute derives the margin for one shipment.
//
// Rule order:
//  1. missing/non-positive final price: not calculable
//  2. own-contract sources: not calculable, the platform never sees the
//     true cost in that model and must not estimate
//  3. first positive cost signal in (provider cost, base price) order
//  4. margin and percent rounded half-up to 2 decimals, the percent from
//     the unrounded ratio
func Compute(finalPrice, providerCost, basePrice *float64, apiSource Source) Result {
	if finalPrice == nil || *finalPrice <= 0 {
		return Result{Calculable: false, Reason: ReasonMissingFinalPrice}
	}

	if apiSource == SourceByocOwn || apiSource == SourceResellerOwn {
		return Result{Calculable: false, Reason: ReasonNotApplicableModel}
	}

	var cost *float64
	var source CostSource
	for _, candidate := range costCandidates {
		if v := candidate.extract(providerCost, basePrice); v != nil && *v > 0 {
			cost = v
			source = candidate.name
			break
		}
	}
	if cost == nil {
		return Result{Calculable: false, Reason: ReasonMissingCostData}
	}

	m := Round2(*finalPrice - *cost)
	percent := Round2(m / *cost * 100)

	return Result{
		Margin:        &m,
		MarginPercent: &percent,
		Calculable:    true,
		Reason:        ReasonOK,
		CostSource:    source,
	}
}

// Round2 rounds half-up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
