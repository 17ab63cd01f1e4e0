package services

import (
	"math"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// DefaultCurrency is the minor-unit currency all base rates are quoted in
const DefaultCurrency = "BRL"

// baseRates maps each complexity tier to its hourly base rate. Rates are
// strictly increasing with tier.
var baseRates = map[entities.Complexity]float64{
	entities.ComplexityPorte1:        800.00,
	entities.ComplexityPorte2:        1500.00,
	entities.ComplexityPorte3:        3000.00,
	entities.ComplexityPorte4:        6000.00,
	entities.ComplexityPorteEspecial: 12000.00,
}

// PricingService derives a base price from complexity and estimated
// duration. It is a pure calculation with no collaborators.
type PricingService struct{}

// NewPricingService creates a new pricing service
func NewPricingService() *PricingService {
	return &PricingService{}
}

// Price computes the base price for a procedure. The tier base rate is
// scaled by max(1, minutes/60): procedures under one hour never price
// below the base rate, longer ones scale linearly per hour. The result is
// rounded to two decimal places.
func (s *PricingService) Price(complexity entities.Complexity, estimatedDurationMinutes int) (float64, error) {
	if estimatedDurationMinutes < 0 {
		return 0, apperrors.NewValidationError("estimated duration must not be negative")
	}

	rate, ok := baseRates[complexity]
	if !ok {
		return 0, apperrors.NewValidationError("unknown complexity tier")
	}

	multiplier := float64(estimatedDurationMinutes) / 60.0
	if multiplier < 1 {
		multiplier = 1
	}

	return math.Round(rate*multiplier*100) / 100, nil
}
