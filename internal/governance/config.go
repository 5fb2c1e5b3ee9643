// Package governance enforces reseller pricing policy on custom-list
// mutations. Thresholds are contract-dependent external configuration,
// never hard-coded in the engine.
package governance

import (
	"os"
	"strconv"
)

type Config struct {
	Enabled bool

	// MinPriceFloor is the lowest final price a reseller may publish.
	MinPriceFloor float64
	// MaxBelowBasePercent caps how far below base price a reseller may go.
	MaxBelowBasePercent float64
}

func LoadFromEnv() *Config {
	return &Config{
		Enabled:             getEnvBool("GOVERNANCE_ENABLED", true),
		MinPriceFloor:       getEnvFloat("GOVERNANCE_MIN_PRICE_FLOOR", 0),
		MaxBelowBasePercent: getEnvFloat("GOVERNANCE_MAX_BELOW_BASE_PERCENT", 0),
	}
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
