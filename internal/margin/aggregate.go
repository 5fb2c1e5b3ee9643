package margin

// Aggregate sums margins across shipments. Non-calculable entries are
// omitted and counted, never coerced to zero: a missing margin must not
// silently become 0.00 in a report total.
type Aggregate struct {
	TotalMargin     float64        `json:"total_margin"`
	CalculableCount int            `json:"calculable_count"`
	ExcludedCount   int            `json:"excluded_count"`
	ExcludedReasons map[Reason]int `json:"excluded_reasons"`
}

func AggregateResults(results []Result) Aggregate {
	agg := Aggregate{
		ExcludedReasons: make(map[Reason]int),
	}
	for _, r := range results {
		if !r.Calculable || r.Margin == nil {
			agg.ExcludedCount++
			agg.ExcludedReasons[r.Reason]++
			continue
		}
		agg.TotalMargin = Round2(agg.TotalMargin + *r.Margin)
		agg.CalculableCount++
	}
	return agg
}
