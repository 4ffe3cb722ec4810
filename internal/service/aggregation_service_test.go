package service

import (
	"testing"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAggregationService() *AggregationService {
	return NewAggregationService(DefaultFallbackRatio)
}

func june2025() time.Time {
	return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func TestAggregation_ComputeTotals_CurrentMonthExcludedFromActuals(t *testing.T) {
	service := setupAggregationService()

	// Apr and May were recorded as zero; June is the current month
	entity := testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate,
		testutil.SamplePlanned, testutil.Actuals(55, 62, 68, 0, 0, 80))

	totals := service.ComputeTotals([]*domain.PlanningEntity{entity}, nil, 2025, june2025(), domain.EntityFilter{})

	assert.Equal(t, int64(185), totals.Actual.Units)
	assert.True(t, totals.Actual.Value.Equal(decimal.RequireFromString("52817.50")), "actual value %s", totals.Actual.Value)
	assert.Equal(t, int64(770), totals.Budget.Units)
	assert.True(t, totals.Budget.Value.Equal(decimal.RequireFromString("219835")), "budget value %s", totals.Budget.Value)
	assert.Equal(t, int64(0), totals.Forecast.Units)
	assert.True(t, totals.Forecast.Value.IsZero())
}

func TestAggregation_ComputeTotals_FallbackForUnrecordedMonths(t *testing.T) {
	service := setupAggregationService()
	entity := testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil)
	today := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	totals := service.ComputeTotals([]*domain.PlanningEntity{entity}, nil, 2025, today, domain.EntityFilter{})

	// Jan: 60 * 0.9 = 54, Feb: 65 * 0.9 = 58.5 rounds half away from zero to 59
	assert.Equal(t, int64(113), totals.Actual.Units)
	assert.True(t, totals.Actual.Value.Equal(decimal.RequireFromString("32118.75")), "actual value %s", totals.Actual.Value)
}

func TestAggregation_ComputeTotals_ConfigurableFallbackRatio(t *testing.T) {
	service := NewAggregationService(decimal.Zero)
	entity := testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil)

	totals := service.ComputeTotals([]*domain.PlanningEntity{entity}, nil, 2025, june2025(), domain.EntityFilter{})

	assert.Equal(t, int64(0), totals.Actual.Units)
	assert.True(t, totals.Actual.Value.IsZero())
}

func TestAggregation_ComputeTotals_JanuaryHasNoActuals(t *testing.T) {
	service := setupAggregationService()
	entity := testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate,
		testutil.SamplePlanned, testutil.Actuals(55))
	today := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	totals := service.ComputeTotals([]*domain.PlanningEntity{entity}, nil, 2025, today, domain.EntityFilter{})

	assert.Equal(t, int64(0), totals.Actual.Units)
	assert.True(t, totals.Actual.Value.IsZero())
}

func TestAggregation_ComputeTotals_PastAndFutureYears(t *testing.T) {
	service := setupAggregationService()
	past := testutil.NewEntity("b2024", domain.KindBudget, 2024, "10", testutil.SamplePlanned,
		testutil.Actuals(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1))
	future := testutil.NewEntity("b2026", domain.KindBudget, 2026, "10", testutil.SamplePlanned,
		testutil.Actuals(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1))
	entities := []*domain.PlanningEntity{past, future}

	pastTotals := service.ComputeTotals(entities, nil, 2024, june2025(), domain.EntityFilter{})
	assert.Equal(t, int64(12), pastTotals.Actual.Units)
	assert.Equal(t, int64(770), pastTotals.Budget.Units)

	futureTotals := service.ComputeTotals(entities, nil, 2026, june2025(), domain.EntityFilter{})
	assert.Equal(t, int64(0), futureTotals.Actual.Units)
	assert.Equal(t, int64(770), futureTotals.Budget.Units)
}

func TestAggregation_ComputeTotals_ForecastCoversAllMonths(t *testing.T) {
	service := setupAggregationService()
	forecast := testutil.NewEntity("f1", domain.KindForecast, 2025, "100",
		[]int64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, nil)

	totals := service.ComputeTotals(nil, []*domain.PlanningEntity{forecast}, 2025, june2025(), domain.EntityFilter{})

	assert.Equal(t, int64(120), totals.Forecast.Units)
	assert.True(t, totals.Forecast.Value.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, int64(0), totals.Budget.Units)
	assert.Equal(t, int64(0), totals.Actual.Units)
}

func TestAggregation_ComputeTotals_Filter(t *testing.T) {
	service := setupAggregationService()
	acme := testutil.NewEntity("b1", domain.KindBudget, 2025, "10", testutil.SamplePlanned, nil)
	globex := testutil.NewEntity("b2", domain.KindBudget, 2025, "10",
		[]int64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, nil)
	globex.CustomerRef = "CUST-002"
	globex.CustomerName = "Globex Industries"
	globex.Brand = "Globex"
	entities := []*domain.PlanningEntity{acme, globex}

	tests := []struct {
		name   string
		filter domain.EntityFilter
		units  int64
	}{
		{"no filter", domain.EntityFilter{}, 782},
		{"customer", domain.EntityFilter{CustomerRef: "CUST-002"}, 12},
		{"brand is case-insensitive", domain.EntityFilter{Brand: "acme"}, 770},
		{"search matches customer name", domain.EntityFilter{Search: "GLOBEX"}, 12},
		{"search matches nothing", domain.EntityFilter{Search: "initech"}, 0},
		{"kind is ignored by rollups", domain.EntityFilter{Kind: domain.KindForecast}, 782},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := service.ComputeTotals(entities, nil, 2025, june2025(), tt.filter)
			assert.Equal(t, tt.units, totals.Budget.Units)
		})
	}
}

func TestAggregation_ComputeTotals_IgnoresOtherYears(t *testing.T) {
	service := setupAggregationService()
	entity := testutil.NewEntity("b1", domain.KindBudget, 2024, "10", testutil.SamplePlanned, nil)

	totals := service.ComputeTotals([]*domain.PlanningEntity{entity}, nil, 2025, june2025(), domain.EntityFilter{})

	assert.Equal(t, int64(0), totals.Budget.Units)
	assert.True(t, totals.Budget.Value.IsZero())
}

func TestAggregation_ComputeTotals_Deterministic(t *testing.T) {
	service := setupAggregationService()
	planning := []*domain.PlanningEntity{
		testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, testutil.Actuals(55, 62)),
	}
	forecasts := []*domain.PlanningEntity{
		testutil.NewEntity("f1", domain.KindForecast, 2025, "300", testutil.SamplePlanned, nil),
	}

	first := service.ComputeTotals(planning, forecasts, 2025, june2025(), domain.EntityFilter{})
	second := service.ComputeTotals(planning, forecasts, 2025, june2025(), domain.EntityFilter{})

	assert.Equal(t, first, second)
}

func TestAggregation_MonthlyBreakdown_SumsToTotals(t *testing.T) {
	service := setupAggregationService()
	planning := []*domain.PlanningEntity{
		testutil.NewEntity("b1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, testutil.Actuals(55, 62, 68, 0, 0, 80)),
	}
	forecasts := []*domain.PlanningEntity{
		testutil.NewEntity("f1", domain.KindForecast, 2025, "300", testutil.SamplePlanned, nil),
	}

	months := service.MonthlyBreakdown(planning, forecasts, 2025, june2025(), domain.EntityFilter{})
	totals := service.ComputeTotals(planning, forecasts, 2025, june2025(), domain.EntityFilter{})

	require.Len(t, months, domain.MonthsPerYear)
	sum := domain.Totals{Budget: domain.ZeroSeries(), Actual: domain.ZeroSeries(), Forecast: domain.ZeroSeries()}
	for i, m := range months {
		assert.Equal(t, domain.CanonicalMonths[i], m.Month)
		assert.Equal(t, i < 5, m.IsPast, "month %s", m.Month)
		sum.Budget = sum.Budget.Add(m.Budget)
		sum.Actual = sum.Actual.Add(m.Actual)
		sum.Forecast = sum.Forecast.Add(m.Forecast)
	}

	assert.Equal(t, totals.Budget.Units, sum.Budget.Units)
	assert.Equal(t, totals.Actual.Units, sum.Actual.Units)
	assert.Equal(t, totals.Forecast.Units, sum.Forecast.Units)
	assert.True(t, totals.Budget.Value.Equal(sum.Budget.Value))
	assert.True(t, totals.Actual.Value.Equal(sum.Actual.Value))
	assert.True(t, totals.Forecast.Value.Equal(sum.Forecast.Value))
}

func TestAggregation_StatusSummary(t *testing.T) {
	service := setupAggregationService()
	draft := testutil.NewEntity("f1", domain.KindForecast, 2025, "10", testutil.SamplePlanned, nil)
	approved := testutil.NewEntity("f2", domain.KindForecast, 2025, "10", testutil.SamplePlanned, nil)
	approved.Status = domain.EntityStatusApproved
	another := testutil.NewEntity("f3", domain.KindForecast, 2025, "1", testutil.SamplePlanned, nil)

	summary := service.StatusSummary([]*domain.PlanningEntity{draft, approved, another})

	assert.Equal(t, 2, summary[domain.EntityStatusDraft].Count)
	assert.True(t, summary[domain.EntityStatusDraft].Value.Equal(decimal.NewFromInt(8470)))
	assert.Equal(t, 1, summary[domain.EntityStatusApproved].Count)
	assert.True(t, summary[domain.EntityStatusApproved].Value.Equal(decimal.NewFromInt(7700)))
	_, ok := summary[domain.EntityStatusRejected]
	assert.False(t, ok)
}
