package checkout

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

const (
	DefaultEstimatedDeliveryMinDays = 3
	DefaultEstimatedDeliveryMaxDays = 5
)

// DeliveryEstimator returns the estimated delivery time for an order placed at orderDate.
type DeliveryEstimator func(orderDate time.Time) time.Time

// RandomWindow picks a whole number of days uniformly in [minDays, maxDays].
func RandomWindow(minDays, maxDays int) DeliveryEstimator {
	return func(orderDate time.Time) time.Time {
		days := minDays
		if maxDays > minDays {
			days += rand.Intn(maxDays - minDays + 1)
		}
		return orderDate.AddDate(0, 0, days)
	}
}

func FixedDays(days int) DeliveryEstimator {
	return func(orderDate time.Time) time.Time {
		return orderDate.AddDate(0, 0, days)
	}
}

// EstimatorFromEnv reads ESTIMATED_DELIVERY_MIN_DAYS and ESTIMATED_DELIVERY_MAX_DAYS.
func EstimatorFromEnv() (DeliveryEstimator, error) {
	minDays, err := envDays("ESTIMATED_DELIVERY_MIN_DAYS", DefaultEstimatedDeliveryMinDays)
	if err != nil {
		return nil, err
	}
	maxDays, err := envDays("ESTIMATED_DELIVERY_MAX_DAYS", DefaultEstimatedDeliveryMaxDays)
	if err != nil {
		return nil, err
	}
	if maxDays < minDays {
		return nil, fmt.Errorf("estimated delivery window is inverted: min %d > max %d", minDays, maxDays)
	}
	return RandomWindow(minDays, maxDays), nil
}

func envDays(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return days, nil
}
