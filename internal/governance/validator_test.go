package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFloor(t *testing.T) {
	v := NewValidator(&Config{Enabled: true, MinPriceFloor: 5})

	err := v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 4.99})
	require.Error(t, err)
	var violation *Violation
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, violation.Message, "below the allowed floor")

	assert.NoError(t, v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 5}))
}

func TestValidateMaxBelowBase(t *testing.T) {
	v := NewValidator(&Config{Enabled: true, MaxBelowBasePercent: 20})

	// 10 base, 20% floor => 8.00 minimum
	assert.Error(t, v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 7.99}))
	assert.NoError(t, v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 8}))
}

func TestValidateSuperAdminBypass(t *testing.T) {
	v := NewValidator(&Config{Enabled: true, MinPriceFloor: 5})
	assert.NoError(t, v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 0.01, IsSuperAdmin: true}))
}

func TestValidateDisabled(t *testing.T) {
	v := NewValidator(&Config{Enabled: false, MinPriceFloor: 5})
	assert.NoError(t, v.Validate(Request{ResellerID: 1, BasePrice: 10, FinalPrice: 0.01}))
}
