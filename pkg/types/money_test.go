package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "9.90", FormatEuros(990))
	assert.Equal(t, "150.00", FormatEuros(15000))
	assert.Equal(t, "0.05", FormatEuros(5))
	assert.Equal(t, "0.00", FormatEuros(0))
}

func TestEurosToCents(t *testing.T) {
	cents, err := EurosToCents(decimal.RequireFromString("149.99"))
	require.NoError(t, err)
	assert.Equal(t, 14999, cents)

	cents, err = EurosToCents(decimal.RequireFromString("12.345"))
	require.NoError(t, err)
	assert.Equal(t, 1235, cents)

	_, err = EurosToCents(decimal.RequireFromString("-1"))
	assert.Error(t, err)

	cents, err = EurosToCents(decimal.New(MaxCents, -2))
	require.NoError(t, err)
	assert.Equal(t, MaxCents, cents)

	_, err = EurosToCents(decimal.New(MaxCents+1, -2))
	assert.Error(t, err)

	_, err = EurosToCents(decimal.RequireFromString("1e30"))
	assert.Error(t, err, "huge amounts must not wrap around")
}
