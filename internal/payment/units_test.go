package payment

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int
		expected string
	}{
		{"0.1", 6, "100000"},
		{"1", 6, "1000000"},
		{"2.5", 18, "2500000000000000000"},
		{" 0.000001 ", 6, "1"},
		{"10", 0, "10"},
	}
	for _, tt := range tests {
		got, err := ParseUnits(tt.amount, tt.decimals)
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.expected, got.String(), tt.amount)
	}
}

func TestParseUnitsErrors(t *testing.T) {
	for _, tt := range []struct {
		amount   string
		decimals int
	}{
		{"", 6},
		{"abc", 6},
		{"0", 6},
		{"-1", 6},
		{"0.0000001", 6},
		{"1", -1},
	} {
		_, err := ParseUnits(tt.amount, tt.decimals)
		assert.Error(t, err, "%q with %d decimals", tt.amount, tt.decimals)
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.1", FormatUnits(big.NewInt(100000), 6))
	assert.Equal(t, "12", FormatUnits(big.NewInt(12000000), 6))
	assert.Equal(t, "0", FormatUnits(nil, 6))
	assert.Equal(t, "5", FormatUnits(big.NewInt(5), 0))
}
