package governance

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Request carries the pricing values of one reseller mutation.
type Request struct {
	ResellerID   snowflake.ID
	BasePrice    float64
	FinalPrice   float64
	IsSuperAdmin bool
}

// Violation is a recoverable policy rejection: the caller can adjust the
// value and retry.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

type Validator struct {
	cfg *Config
}

func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate returns a Violation when the mutation breaks pricing policy,
// nil to permit the write. Superadmin actors bypass every check.
func (v *Validator) Validate(req Request) error {
	if !v.cfg.Enabled || req.IsSuperAdmin {
		return nil
	}

	if v.cfg.MinPriceFloor > 0 && req.FinalPrice < v.cfg.MinPriceFloor {
		return &Violation{Message: fmt.Sprintf(
			"final price %.2f is below the allowed floor of %.2f",
			req.FinalPrice, v.cfg.MinPriceFloor,
		)}
	}

	if v.cfg.MaxBelowBasePercent > 0 && req.BasePrice > 0 {
		floor := req.BasePrice * (1 - v.cfg.MaxBelowBasePercent/100)
		if req.FinalPrice < floor {
			return &Violation{Message: fmt.Sprintf(
				"final price %.2f undercuts base price %.2f by more than %.0f%%",
				req.FinalPrice, req.BasePrice, v.cfg.MaxBelowBasePercent,
			)}
		}
	}

	return nil
}
