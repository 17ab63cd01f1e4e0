package services

import (
	"testing"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingService_Price(t *testing.T) {
	pricing := NewPricingService()

	t.Run("short procedures never price below the base rate", func(t *testing.T) {
		for _, d := range []int{0, 15, 30, 59, 60} {
			price, err := pricing.Price(entities.ComplexityPorte1, d)
			require.NoError(t, err)
			assert.Equal(t, 800.00, price, "duration %d should stay at the base rate", d)
		}
	})

	t.Run("longer procedures scale linearly per hour", func(t *testing.T) {
		price, err := pricing.Price(entities.ComplexityPorte2, 90)
		require.NoError(t, err)
		assert.Equal(t, 2250.00, price)

		price, err = pricing.Price(entities.ComplexityPorte2, 120)
		require.NoError(t, err)
		assert.Equal(t, 3000.00, price)
	})

	t.Run("price is non-decreasing in duration", func(t *testing.T) {
		prev := 0.0
		for d := 60; d <= 300; d += 30 {
			price, err := pricing.Price(entities.ComplexityPorte3, d)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, price, prev)
			prev = price
		}
	})

	t.Run("base rates increase with tier", func(t *testing.T) {
		tiers := []entities.Complexity{
			entities.ComplexityPorte1,
			entities.ComplexityPorte2,
			entities.ComplexityPorte3,
			entities.ComplexityPorte4,
			entities.ComplexityPorteEspecial,
		}
		prev := 0.0
		for _, tier := range tiers {
			price, err := pricing.Price(tier, 60)
			require.NoError(t, err)
			assert.Greater(t, price, prev, "tier %s should be more expensive than the previous one", tier)
			prev = price
		}
	})

	t.Run("rounds to two decimal places", func(t *testing.T) {
		// 800 * 100/60 = 1333.333...
		price, err := pricing.Price(entities.ComplexityPorte1, 100)
		require.NoError(t, err)
		assert.Equal(t, 1333.33, price)
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		_, err := pricing.Price(entities.ComplexityPorte1, -1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects unknown tier", func(t *testing.T) {
		_, err := pricing.Price(entities.Complexity("PORTE_9"), 60)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}
