package pricing

import (
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"
)

const (
	DefaultFreeDeliveryThreshold  = 1000
	DefaultStandardDeliveryCharge = 50

	// MoneyPlaces matches the NUMERIC(12,2) order columns.
	MoneyPlaces = 2
)

// Config holds the two delivery tiers: free at or above the threshold, a flat charge below it.
type Config struct {
	FreeDeliveryThreshold  decimal.Decimal
	StandardDeliveryCharge decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		FreeDeliveryThreshold:  decimal.NewFromInt(DefaultFreeDeliveryThreshold),
		StandardDeliveryCharge: decimal.NewFromInt(DefaultStandardDeliveryCharge),
	}
}

// ConfigFromEnv reads FREE_DELIVERY_THRESHOLD and STANDARD_DELIVERY_CHARGE, keeping the
// defaults for unset variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("FREE_DELIVERY_THRESHOLD"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FREE_DELIVERY_THRESHOLD %q: %w", v, err)
		}
		cfg.FreeDeliveryThreshold = Clamp(d)
	}
	if v := os.Getenv("STANDARD_DELIVERY_CHARGE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STANDARD_DELIVERY_CHARGE %q: %w", v, err)
		}
		cfg.StandardDeliveryCharge = Clamp(d)
	}

	return cfg, nil
}

// DeliveryCharge returns zero when subtotal reaches freeThreshold and standardCharge otherwise.
// A negative subtotal counts as zero.
func DeliveryCharge(subtotal, freeThreshold, standardCharge decimal.Decimal) decimal.Decimal {
	if Clamp(subtotal).GreaterThanOrEqual(freeThreshold) {
		return decimal.Zero
	}
	return Clamp(standardCharge)
}

func Total(subtotal, deliveryCharge decimal.Decimal) decimal.Decimal {
	return Clamp(subtotal).Add(Clamp(deliveryCharge))
}

// LineTotal is price × quantity; non-positive quantities yield zero.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return Clamp(price).Mul(decimal.NewFromInt(int64(quantity)))
}

func (c Config) DeliveryCharge(subtotal decimal.Decimal) decimal.Decimal {
	return DeliveryCharge(subtotal, c.FreeDeliveryThreshold, c.StandardDeliveryCharge)
}

// Quote returns the delivery charge and grand total for a subtotal.
func (c Config) Quote(subtotal decimal.Decimal) (deliveryCharge, total decimal.Decimal) {
	deliveryCharge = c.DeliveryCharge(subtotal)
	return deliveryCharge, Total(subtotal, deliveryCharge)
}

// Clamp maps negative amounts to zero.
func Clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FromFloat converts a stored floating point amount to whole paise, treating NaN,
// infinities and negatives as zero.
func FromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return Round(decimal.NewFromFloat(f))
}

// Round rounds an amount half away from zero to MoneyPlaces.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
