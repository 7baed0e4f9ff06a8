package pricing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestDeliveryCharge_TierBoundary(t *testing.T) {
	threshold, charge := d(1000), d(50)

	assert.True(t, DeliveryCharge(d(1000), threshold, charge).IsZero())
	assert.True(t, DeliveryCharge(d(999), threshold, charge).Equal(d(50)))
	assert.True(t, DeliveryCharge(d(1001), threshold, charge).IsZero())
}

func TestDeliveryCharge_NegativeSubtotalTreatedAsZero(t *testing.T) {
	got := DeliveryCharge(d(-5000), d(1000), d(50))
	assert.True(t, got.Equal(d(50)))

	// A zero threshold makes every clamped subtotal free.
	got = DeliveryCharge(d(-1), d(0), d(50))
	assert.True(t, got.IsZero())
}

func TestDeliveryCharge_NoGraduatedTier(t *testing.T) {
	for _, subtotal := range []int64{0, 1, 250, 500, 998} {
		assert.True(t, DeliveryCharge(d(subtotal), d(1000), d(50)).Equal(d(50)), "subtotal %d", subtotal)
	}
}

func TestTotal_ClampsInputs(t *testing.T) {
	assert.True(t, Total(d(450), d(50)).Equal(d(500)))
	assert.True(t, Total(d(-10), d(50)).Equal(d(50)))
	assert.True(t, Total(d(100), d(-50)).Equal(d(100)))
}

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(decimal.RequireFromString("99.99"), 3).Equal(decimal.RequireFromString("299.97")))
	assert.True(t, LineTotal(d(100), 0).IsZero())
	assert.True(t, LineTotal(d(100), -2).IsZero())
	assert.True(t, LineTotal(d(-100), 2).IsZero())
}

func TestFromFloat_NonFiniteIsZero(t *testing.T) {
	assert.True(t, FromFloat(math.NaN()).IsZero())
	assert.True(t, FromFloat(math.Inf(1)).IsZero())
	assert.True(t, FromFloat(math.Inf(-1)).IsZero())
	assert.True(t, FromFloat(-3).IsZero())
	assert.True(t, FromFloat(12.5).Equal(decimal.RequireFromString("12.5")))
}

func TestFromFloat_RoundsToPaise(t *testing.T) {
	price := FromFloat(33.335)
	assert.Equal(t, "33.34", price.StringFixed(2))
	assert.True(t, price.Equal(price.Round(MoneyPlaces)))

	// line totals built from rounded prices stay representable in NUMERIC(12,2)
	subtotal := LineTotal(price, 3).Add(LineTotal(FromFloat(19.999), 2))
	assert.True(t, subtotal.Equal(subtotal.Round(MoneyPlaces)))
	assert.Equal(t, "140.02", subtotal.StringFixed(2))
}

func TestConfig_Quote(t *testing.T) {
	cfg := DefaultConfig()

	charge, total := cfg.Quote(d(450))
	assert.True(t, charge.Equal(d(50)))
	assert.True(t, total.Equal(d(500)))

	charge, total = cfg.Quote(d(1200))
	assert.True(t, charge.IsZero())
	assert.True(t, total.Equal(d(1200)))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FREE_DELIVERY_THRESHOLD", "499.50")
	t.Setenv("STANDARD_DELIVERY_CHARGE", "40")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.FreeDeliveryThreshold.Equal(decimal.RequireFromString("499.5")))
	assert.True(t, cfg.StandardDeliveryCharge.Equal(d(40)))
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("STANDARD_DELIVERY_CHARGE", "fifty")

	_, err := ConfigFromEnv()
	require.ErrorContains(t, err, "STANDARD_DELIVERY_CHARGE")
}
