package service

import (
	"fmt"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ScenarioService applies what-if adjustments to monthly records
type ScenarioService struct{}

// NewScenarioService creates a new ScenarioService
func NewScenarioService() *ScenarioService {
	return &ScenarioService{}
}

// ScenarioResult is an adjusted record set together with its before/after totals
type ScenarioResult struct {
	Records     []domain.MonthlyRecord     `json:"records"`
	Base        domain.SeriesTotal         `json:"base"`
	Adjusted    domain.SeriesTotal         `json:"adjusted"`
	ValueDelta  decimal.Decimal            `json:"valueDelta"`
	UnitsDelta  int64                      `json:"unitsDelta"`
	Adjustments domain.ScenarioAdjustments `json:"adjustments"`
}

// Presets returns the built-in scenarios
func (s *ScenarioService) Presets() []domain.ScenarioPreset {
	return append([]domain.ScenarioPreset(nil), domain.ScenarioPresets...)
}

// Preset looks up a built-in scenario by id
func (s *ScenarioService) Preset(id string) (*domain.ScenarioPreset, error) {
	for _, p := range domain.ScenarioPresets {
		if p.ID == id {
			preset := p
			return &preset, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown scenario preset %q", domain.ErrNotFound, id)
}

// ApplyScenario returns an adjusted deep copy of base. The input slice is never modified.
func (s *ScenarioService) ApplyScenario(base []domain.MonthlyRecord, adj domain.ScenarioAdjustments) ([]domain.MonthlyRecord, error) {
	if adj.SalesGrowthPct.LessThanOrEqual(hundred.Neg()) {
		return nil, fmt.Errorf("%w: sales growth must be above -100%%", domain.ErrInvalidAdjustment)
	}
	if adj.SeasonalitySkew != nil && (adj.SeasonalitySkew.IsNegative() || adj.SeasonalitySkew.GreaterThan(hundred)) {
		return nil, fmt.Errorf("%w: seasonality skew must be between 0 and 100", domain.ErrInvalidAdjustment)
	}
	if adj.DiscountDeltaPct != nil && adj.DiscountDeltaPct.LessThan(hundred.Neg()) {
		return nil, fmt.Errorf("%w: discount change must not be below -100%%", domain.ErrInvalidAdjustment)
	}

	out := domain.CloneRecords(base)
	factor := decimal.NewFromInt(1).Add(adj.SalesGrowthPct.Div(hundred))

	if adj.SeasonalitySkew == nil {
		for i := range out {
			out[i].PlannedQuantity = decimal.NewFromInt(out[i].PlannedQuantity).Mul(factor).Round(0).IntPart()
		}
	} else if err := skewGrowth(out, factor, adj.SeasonalitySkew.Div(hundred)); err != nil {
		return nil, err
	}

	if adj.DiscountDeltaPct != nil {
		discountFactor := decimal.NewFromInt(1).Add(adj.DiscountDeltaPct.Div(hundred))
		for i := range out {
			out[i].Discount = out[i].Discount.Mul(discountFactor).Round(2)
		}
	}

	return out, nil
}

// Preview applies adjustments and reports the planned totals before and after
func (s *ScenarioService) Preview(base []domain.MonthlyRecord, adj domain.ScenarioAdjustments) (*ScenarioResult, error) {
	adjusted, err := s.ApplyScenario(base, adj)
	if err != nil {
		return nil, err
	}

	before := sumPlanned(base)
	after := sumPlanned(adjusted)
	return &ScenarioResult{
		Records:     adjusted,
		Base:        before,
		Adjusted:    after,
		ValueDelta:  after.Value.Sub(before.Value),
		UnitsDelta:  after.Units - before.Units,
		Adjustments: adj,
	}, nil
}

// skewGrowth moves the yearly total to round(total × factor) and hands the change out over
// a blend of each month's current share and the seasonal curve. k is the curve's weight.
func skewGrowth(records []domain.MonthlyRecord, factor, k decimal.Decimal) error {
	var total int64
	for _, r := range records {
		total += r.PlannedQuantity
	}
	target := decimal.NewFromInt(total).Mul(factor).Round(0).IntPart()
	delta := target - total
	if delta == 0 {
		return nil
	}

	one := decimal.NewFromInt(1)
	weights := make([]decimal.Decimal, len(records))
	sum := decimal.Zero
	for i, r := range records {
		idx, ok := domain.MonthIndex(r.Month)
		if !ok {
			return fmt.Errorf("%w: unknown month %q", domain.ErrMalformedRecord, r.Month)
		}
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(r.PlannedQuantity).Div(decimal.NewFromInt(total))
		}
		weights[i] = one.Sub(k).Mul(share).Add(k.Mul(domain.SeasonalCurve[idx]))
		sum = sum.Add(weights[i])
	}
	if !sum.IsPositive() {
		return fmt.Errorf("%w: no month can absorb the change", domain.ErrInvalidAdjustment)
	}

	sign := int64(1)
	if delta < 0 {
		sign, delta = -1, -delta
	}
	for i, units := range apportion(delta, weights) {
		records[i].PlannedQuantity += sign * units
		if records[i].PlannedQuantity < 0 {
			return fmt.Errorf("%w: %s would go below zero", domain.ErrInvalidAdjustment, records[i].Month)
		}
	}
	return nil
}

func sumPlanned(records []domain.MonthlyRecord) domain.SeriesTotal {
	total := domain.ZeroSeries()
	for _, r := range records {
		total = total.Add(planned(r))
	}
	return total
}
