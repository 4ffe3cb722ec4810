package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDashboardService() (*DashboardService, *testutil.MockEntityRepository) {
	entityRepo := testutil.NewMockEntityRepository()
	entityRepo.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, testutil.Actuals(55, 0)))

	superseded := testutil.NewEntity("b-0", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil)
	superseded.Status = domain.EntityStatusRevised
	entityRepo.AddEntity(superseded)

	entityRepo.AddEntity(testutil.NewEntity("b-2", domain.KindBudget, 2026, testutil.SampleRate, testutil.SamplePlanned, nil))
	entityRepo.AddEntity(testutil.NewEntity("f-1", domain.KindForecast, 2025, "300", testutil.SamplePlanned, nil))

	svc := NewDashboardService(entityRepo, NewAggregationService(DefaultFallbackRatio), testutil.FixedClock(2025, time.June, 1))
	return svc, entityRepo
}

func TestDashboardService_GetSummary(t *testing.T) {
	svc, _ := setupDashboardService()

	summary, err := svc.GetSummary(context.Background(), 2025, domain.EntityFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, "0.9", summary.FallbackRatio)

	// June is the current month and is not yet an actual
	assert.Equal(t, []domain.MonthName{domain.January, domain.February, domain.March, domain.April, domain.May}, summary.PastMonths)
	assert.Len(t, summary.RemainingMonths, 7)

	if !summary.Totals.Budget.Value.Equal(decimal.RequireFromString("219835")) {
		t.Errorf("Expected budget value 219835, got %s", summary.Totals.Budget.Value)
	}
	assert.Equal(t, int64(770), summary.Totals.Budget.Units)

	// Jan 55 recorded, Feb 0 recorded, Mar-May at 90% of plan
	if !summary.Totals.Actual.Value.Equal(decimal.RequireFromString("73516.25")) {
		t.Errorf("Expected actual value 73516.25, got %s", summary.Totals.Actual.Value)
	}
	assert.Equal(t, int64(258), summary.Totals.Actual.Units)

	assert.True(t, summary.Totals.Forecast.Value.Equal(decimal.NewFromInt(231000)))
	assert.Equal(t, int64(770), summary.Totals.Forecast.Units)

	require.Contains(t, summary.BudgetStatus, domain.EntityStatusDraft)
	assert.Equal(t, 1, summary.BudgetStatus[domain.EntityStatusDraft].Count)
	assert.NotContains(t, summary.BudgetStatus, domain.EntityStatusRevised)
	assert.Equal(t, 1, summary.ForecastStatus[domain.EntityStatusDraft].Count)
}

func TestDashboardService_GetSummary_Filter(t *testing.T) {
	svc, _ := setupDashboardService()

	summary, err := svc.GetSummary(context.Background(), 2025, domain.EntityFilter{CustomerRef: "CUST-404"})
	require.NoError(t, err)

	assert.True(t, summary.Totals.Budget.Value.IsZero())
	assert.True(t, summary.Totals.Actual.Value.IsZero())
	assert.True(t, summary.Totals.Forecast.Value.IsZero())
	assert.Empty(t, summary.BudgetStatus)
}

func TestDashboardService_GetSummary_PastYear(t *testing.T) {
	svc, entityRepo := setupDashboardService()
	entityRepo.AddEntity(testutil.NewEntity("b-old", domain.KindBudget, 2024, "10", testutil.SamplePlanned, nil))

	summary, err := svc.GetSummary(context.Background(), 2024, domain.EntityFilter{})
	require.NoError(t, err)

	assert.Empty(t, summary.RemainingMonths)
	assert.Len(t, summary.PastMonths, 12)
	// every month is past and none recorded: 90% of 7700
	assert.True(t, summary.Totals.Actual.Value.Equal(decimal.NewFromInt(6930)), "got %s", summary.Totals.Actual.Value)
}

func TestDashboardService_GetMonthly(t *testing.T) {
	svc, _ := setupDashboardService()

	months, err := svc.GetMonthly(context.Background(), 2025, domain.EntityFilter{})
	require.NoError(t, err)
	require.Len(t, months, 12)

	assert.Equal(t, domain.January, months[0].Month)
	assert.True(t, months[0].IsPast)
	assert.Equal(t, int64(55), months[0].Actual.Units)
	assert.Equal(t, int64(60), months[0].Budget.Units)

	june := months[5]
	assert.False(t, june.IsPast)
	assert.True(t, june.Actual.Value.IsZero())
	assert.True(t, june.Forecast.Value.Equal(decimal.NewFromInt(85*300)))
}

func TestDashboardService_GetCalendar(t *testing.T) {
	svc, _ := setupDashboardService()

	tests := []struct {
		name          string
		year          int
		wantPast      int
		wantRemaining int
		wantCurrent   int
	}{
		{"current year", 2025, 5, 7, 5},
		{"future year", 2026, 0, 12, -1},
		{"past year", 2024, 12, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := svc.GetCalendar(tt.year)
			require.Len(t, cal.Months, 12)
			assert.Len(t, cal.Past, tt.wantPast)
			assert.Len(t, cal.Remaining, tt.wantRemaining)

			current := -1
			for i, m := range cal.Months {
				if m.IsCurrent {
					current = i
				}
			}
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, time.Date(tt.year, time.March, 1, 0, 0, 0, 0, time.UTC), cal.Months[2].Start)
		})
	}
}
