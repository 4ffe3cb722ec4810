package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.RequireFromString("0.01")

	// maxDistributableValue is the largest total whose cents fit in an int64
	maxDistributableValue = decimal.New(math.MaxInt64, -2)
)

// DistributionService spreads yearly totals across the twelve months
type DistributionService struct {
	clock domain.Clock
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(clock domain.Clock) *DistributionService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &DistributionService{
		clock: clock,
	}
}

// Distribute splits req's totals over the months of req.Year. Units and cents are handed out
// with the largest-remainder method so the monthly figures always sum to the totals exactly.
func (s *DistributionService) Distribute(req domain.DistributionRequest) (*domain.Distribution, error) {
	if req.TotalValue.IsNegative() {
		return nil, fmt.Errorf("%w: total value must not be negative", domain.ErrInvalidDistribution)
	}
	if req.TotalValue.GreaterThan(maxDistributableValue) {
		return nil, fmt.Errorf("%w: total value exceeds %s", domain.ErrInvalidDistribution, maxDistributableValue.String())
	}
	if req.TotalUnits < 0 {
		return nil, fmt.Errorf("%w: total units must not be negative", domain.ErrInvalidDistribution)
	}
	if req.TotalUnits == 0 && req.TotalValue.IsPositive() {
		return nil, fmt.Errorf("%w: a positive total value needs units to carry it", domain.ErrInvalidDistribution)
	}
	if req.Year < domain.MinPlanningYear || req.Year > domain.MaxPlanningYear {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrInvalidDistribution, req.Year)
	}

	weights, err := weightsFor(req)
	if err != nil {
		return nil, err
	}

	units := apportion(req.TotalUnits, weights)
	values := apportionValue(req.TotalValue, weights)

	months := make([]domain.MonthAllocation, domain.MonthsPerYear)
	for i, name := range domain.CanonicalMonths {
		months[i] = domain.MonthAllocation{
			Month: name,
			Units: units[i],
			Value: values[i],
		}
	}

	return &domain.Distribution{
		Scheme:     req.Scheme,
		Year:       req.Year,
		TotalValue: req.TotalValue,
		TotalUnits: req.TotalUnits,
		Months:     months,
		AppliedAt:  s.clock.Now(),
	}, nil
}

// weightsFor returns the twelve relative month weights of a scheme. Weights are not
// normalized; apportion divides by their sum.
func weightsFor(req domain.DistributionRequest) ([]decimal.Decimal, error) {
	switch req.Scheme {
	case domain.SchemeEqual:
		weights := make([]decimal.Decimal, domain.MonthsPerYear)
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
		return weights, nil

	case domain.SchemeSeasonal:
		return append([]decimal.Decimal(nil), domain.SeasonalCurve[:]...), nil

	case domain.SchemeHistorical:
		sum, err := checkVector(req.Weights, "historical weights")
		if err != nil {
			return nil, err
		}
		if !sum.IsPositive() {
			return nil, fmt.Errorf("%w: historical weights must have a positive sum", domain.ErrInvalidDistribution)
		}
		return append([]decimal.Decimal(nil), req.Weights...), nil

	case domain.SchemeCustom:
		sum, err := checkVector(req.Percentages, "custom percentages")
		if err != nil {
			return nil, err
		}
		if sum.Sub(hundred).Abs().GreaterThan(domain.CustomPercentTolerance) {
			return nil, fmt.Errorf("%w: custom percentages sum to %s, expected 100", domain.ErrInvalidDistribution, sum.String())
		}
		return append([]decimal.Decimal(nil), req.Percentages...), nil

	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", domain.ErrInvalidDistribution, req.Scheme)
	}
}

func checkVector(v []decimal.Decimal, label string) (decimal.Decimal, error) {
	if len(v) != domain.MonthsPerYear {
		return decimal.Zero, fmt.Errorf("%w: %s need %d entries, got %d", domain.ErrInvalidDistribution, label, domain.MonthsPerYear, len(v))
	}
	sum := decimal.Zero
	for i, w := range v {
		if w.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %s for %s is negative", domain.ErrInvalidDistribution, label, domain.CanonicalMonths[i])
		}
		sum = sum.Add(w)
	}
	return sum, nil
}

// apportion splits a non-negative integer total in proportion to weights. Every share is
// floored, then the leftover units go one at a time to the largest fractional parts, ties
// to the earlier position. The weights must have a positive sum.
func apportion(total int64, weights []decimal.Decimal) []int64 {
	out := make([]int64, len(weights))
	if total == 0 || len(weights) == 0 {
		return out
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}

	fracs := make([]decimal.Decimal, len(weights))
	var assigned int64
	t := decimal.NewFromInt(total)
	for i, w := range weights {
		exact := t.Mul(w).Div(sum)
		floor := exact.Floor()
		out[i] = floor.IntPart()
		fracs[i] = exact.Sub(floor)
		assigned += out[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})

	for i := int64(0); i < total-assigned; i++ {
		out[order[int(i)%len(order)]]++
	}
	return out
}

// apportionValue splits a money total into cents with apportion. Any sub-cent residue of
// the total is kept on the last month with a positive weight.
func apportionValue(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	cents := total.Mul(hundred).Floor()
	split := apportion(cents.IntPart(), weights)

	out := make([]decimal.Decimal, len(weights))
	for i, c := range split {
		out[i] = decimal.NewFromInt(c).Mul(cent)
	}

	residue := total.Sub(cents.Mul(cent))
	if !residue.IsZero() {
		for i := len(weights) - 1; i >= 0; i-- {
			if weights[i].IsPositive() {
				out[i] = out[i].Add(residue)
				break
			}
		}
	}
	return out
}
