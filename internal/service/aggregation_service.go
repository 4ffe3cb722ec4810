package service

import (
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/util"
	"github.com/shopspring/decimal"
)

// DefaultFallbackRatio is the share of the planned value assumed for a past month
// whose actual quantity was never recorded
var DefaultFallbackRatio = decimal.RequireFromString("0.9")

// AggregationService rolls monthly records up into budget, actual and forecast totals
type AggregationService struct {
	fallbackRatio decimal.Decimal
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(fallbackRatio decimal.Decimal) *AggregationService {
	return &AggregationService{
		fallbackRatio: fallbackRatio,
	}
}

// FallbackRatio returns the configured fallback ratio
func (s *AggregationService) FallbackRatio() decimal.Decimal {
	return s.fallbackRatio
}

// ComputeTotals computes the yearly budget, actual and forecast series for the entities
// matching year and filter. Months strictly before today's month count as actuals.
func (s *AggregationService) ComputeTotals(
	planning, forecasts []*domain.PlanningEntity,
	year int,
	today time.Time,
	filter domain.EntityFilter,
) domain.Totals {
	filter.Kind, filter.Year = "", 0
	totals := domain.Totals{
		Budget:   domain.ZeroSeries(),
		Actual:   domain.ZeroSeries(),
		Forecast: domain.ZeroSeries(),
	}

	for _, e := range planning {
		if !inScope(e, year, filter) {
			continue
		}
		for _, m := range e.Months {
			totals.Budget = totals.Budget.Add(planned(m))
			if util.IsPast(year, m.Month, today) {
				totals.Actual = totals.Actual.Add(s.actual(m))
			}
		}
	}

	for _, e := range forecasts {
		if !inScope(e, year, filter) {
			continue
		}
		for _, m := range e.Months {
			totals.Forecast = totals.Forecast.Add(planned(m))
		}
	}

	return totals
}

// MonthlyBreakdown computes the three series month by month in canonical order
func (s *AggregationService) MonthlyBreakdown(
	planning, forecasts []*domain.PlanningEntity,
	year int,
	today time.Time,
	filter domain.EntityFilter,
) []domain.MonthTotals {
	filter.Kind, filter.Year = "", 0
	out := make([]domain.MonthTotals, domain.MonthsPerYear)
	for i, name := range domain.CanonicalMonths {
		out[i] = domain.MonthTotals{
			Month:    name,
			IsPast:   util.IsPast(year, name, today),
			Budget:   domain.ZeroSeries(),
			Actual:   domain.ZeroSeries(),
			Forecast: domain.ZeroSeries(),
		}
	}

	for _, e := range planning {
		if !inScope(e, year, filter) {
			continue
		}
		for _, m := range e.Months {
			idx, ok := domain.MonthIndex(m.Month)
			if !ok {
				continue
			}
			out[idx].Budget = out[idx].Budget.Add(planned(m))
			if out[idx].IsPast {
				out[idx].Actual = out[idx].Actual.Add(s.actual(m))
			}
		}
	}

	for _, e := range forecasts {
		if !inScope(e, year, filter) {
			continue
		}
		for _, m := range e.Months {
			idx, ok := domain.MonthIndex(m.Month)
			if !ok {
				continue
			}
			out[idx].Forecast = out[idx].Forecast.Add(planned(m))
		}
	}

	return out
}

// StatusSummary counts entities per status and sums their yearly planned value
func (s *AggregationService) StatusSummary(entities []*domain.PlanningEntity) map[domain.EntityStatus]domain.StatusTotals {
	summary := make(map[domain.EntityStatus]domain.StatusTotals)
	for _, e := range entities {
		st, ok := summary[e.Status]
		if !ok {
			st.Value = decimal.Zero
		}
		st.Count++
		st.Value = st.Value.Add(e.YearlyTotal())
		summary[e.Status] = st
	}
	return summary
}

func planned(m domain.MonthlyRecord) domain.SeriesTotal {
	return domain.SeriesTotal{Value: m.TotalValue(), Units: m.PlannedQuantity}
}

// actual returns the recorded actual of a past month, or the fallback estimate when
// nothing was recorded
func (s *AggregationService) actual(m domain.MonthlyRecord) domain.SeriesTotal {
	if m.HasActual() {
		units := *m.ActualQuantity
		return domain.SeriesTotal{
			Value: m.UnitRate.Mul(decimal.NewFromInt(units)),
			Units: units,
		}
	}

	value := m.TotalValue().Mul(s.fallbackRatio)
	if m.UnitRate.IsZero() {
		return domain.SeriesTotal{Value: value}
	}
	return domain.SeriesTotal{
		Value: value,
		Units: value.Div(m.UnitRate).Round(0).IntPart(),
	}
}

// inScope reports whether an entity belongs to the year and matches the filter
func inScope(e *domain.PlanningEntity, year int, filter domain.EntityFilter) bool {
	if e == nil || e.Year != year {
		return false
	}
	return filter.Matches(e)
}
