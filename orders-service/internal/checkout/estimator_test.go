package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomWindow_StaysInRange(t *testing.T) {
	placed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	estimate := RandomWindow(3, 5)

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		days := int(estimate(placed).Sub(placed).Hours() / 24)
		require.GreaterOrEqual(t, days, 3)
		require.LessOrEqual(t, days, 5)
		seen[days] = true
	}
	assert.Len(t, seen, 3)
}

func TestFixedDays(t *testing.T) {
	placed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, placed.AddDate(0, 0, 4), FixedDays(4)(placed))
}

func TestEstimatorFromEnv(t *testing.T) {
	placed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Setenv("ESTIMATED_DELIVERY_MIN_DAYS", "7")
	t.Setenv("ESTIMATED_DELIVERY_MAX_DAYS", "7")
	estimate, err := EstimatorFromEnv()
	require.NoError(t, err)
	assert.Equal(t, placed.AddDate(0, 0, 7), estimate(placed))

	t.Setenv("ESTIMATED_DELIVERY_MAX_DAYS", "2")
	_, err = EstimatorFromEnv()
	assert.Error(t, err)

	t.Setenv("ESTIMATED_DELIVERY_MAX_DAYS", "soon")
	_, err = EstimatorFromEnv()
	assert.Error(t, err)
}
