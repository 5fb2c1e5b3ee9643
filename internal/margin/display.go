package margin

import "fmt"

// DisplayClass is the semantic class dashboards use to color a margin.
type DisplayClass string

const (
	ClassPositive    DisplayClass = "positive"
	ClassNegative    DisplayClass = "negative"
	ClassNeutral     DisplayClass = "neutral"
	ClassUnavailable DisplayClass = "unavailable"
)

// Display maps a Result to the value string, semantic class and tooltip
// presented to operators. Non-calculable margins render as N/A, never as
// a zero amount.
func Display(r Result) (value string, class DisplayClass, tooltip string) {
	if !r.Calculable || r.Margin == nil {
		switch r.Reason {
		case ReasonNotApplicableModel:
			return "N/A", ClassUnavailable, "Margin not applicable: account uses its own courier contract"
		case ReasonMissingCostData:
			return "N/A", ClassUnavailable, "Margin unavailable: no cost data for this shipment"
		default:
			return "N/A", ClassUnavailable, "Margin unavailable: shipment has no final price"
		}
	}

	value = fmt.Sprintf("%.2f", *r.Margin)
	if r.MarginPercent != nil {
		tooltip = fmt.Sprintf("Margin %.2f (%.2f%%), cost from %s", *r.Margin, *r.MarginPercent, r.CostSource)
	} else {
		tooltip = fmt.Sprintf("Margin %.2f, cost from %s", *r.Margin, r.CostSource)
	}

	switch {
	case *r.Margin > 0:
		class = ClassPositive
	case *r.Margin < 0:
		class = ClassNegative
	default:
		class = ClassNeutral
	}
	return value, class, tooltip
}
