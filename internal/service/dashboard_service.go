package service

import (
	"context"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/util"
)

// DashboardService assembles the planning dashboard for a year
type DashboardService struct {
	entityRepo  domain.PlanningEntityRepository
	aggregation *AggregationService
	clock       domain.Clock
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	entityRepo domain.PlanningEntityRepository,
	aggregation *AggregationService,
	clock domain.Clock,
) *DashboardService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &DashboardService{
		entityRepo:  entityRepo,
		aggregation: aggregation,
		clock:       clock,
	}
}

// CurrentYear returns the year containing today
func (s *DashboardService) CurrentYear() int {
	return s.clock.Now().Year()
}

// GetSummary returns the yearly totals, the month split and the status cards
func (s *DashboardService) GetSummary(ctx context.Context, year int, filter domain.EntityFilter) (*domain.DashboardSummary, error) {
	budgets, forecasts, err := s.load(year)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now()
	return &domain.DashboardSummary{
		Year:            year,
		Today:           today,
		Totals:          s.aggregation.ComputeTotals(budgets, forecasts, year, today, filter),
		FallbackRatio:   s.aggregation.FallbackRatio().String(),
		PastMonths:      util.PastMonths(year, today),
		RemainingMonths: util.RemainingMonths(year, today),
		BudgetStatus:    s.aggregation.StatusSummary(matching(budgets, filter)),
		ForecastStatus:  s.aggregation.StatusSummary(matching(forecasts, filter)),
	}, nil
}

// GetMonthly returns the per-month breakdown used by the charts
func (s *DashboardService) GetMonthly(ctx context.Context, year int, filter domain.EntityFilter) ([]domain.MonthTotals, error) {
	budgets, forecasts, err := s.load(year)
	if err != nil {
		return nil, err
	}
	return s.aggregation.MonthlyBreakdown(budgets, forecasts, year, s.clock.Now(), filter), nil
}

// GetCalendar reports which months of year carry actuals and which are still open
func (s *DashboardService) GetCalendar(year int) *domain.PlanningCalendar {
	today := s.clock.Now()
	cal := &domain.PlanningCalendar{
		Year:      year,
		Today:     today,
		Months:    make([]domain.CalendarMonth, 0, domain.MonthsPerYear),
		Past:      util.PastMonths(year, today),
		Remaining: util.RemainingMonths(year, today),
	}
	for i, name := range domain.CanonicalMonths {
		start, _ := util.MonthStart(year, name)
		cal.Months = append(cal.Months, domain.CalendarMonth{
			Month:     name,
			Start:     start,
			IsPast:    util.IsPast(year, name, today),
			IsCurrent: year == today.Year() && i == int(today.Month())-1,
		})
	}
	return cal
}

// load returns the live budget and forecast lines of year. Revised lines are
// superseded by their revision and never count.
func (s *DashboardService) load(year int) ([]*domain.PlanningEntity, []*domain.PlanningEntity, error) {
	budgets, err := s.entityRepo.List(domain.EntityFilter{Kind: domain.KindBudget, Year: year})
	if err != nil {
		return nil, nil, err
	}
	forecasts, err := s.entityRepo.List(domain.EntityFilter{Kind: domain.KindForecast, Year: year})
	if err != nil {
		return nil, nil, err
	}
	return live(budgets), live(forecasts), nil
}

func live(entities []*domain.PlanningEntity) []*domain.PlanningEntity {
	out := entities[:0:0]
	for _, e := range entities {
		if e.Status != domain.EntityStatusRevised {
			out = append(out, e)
		}
	}
	return out
}

func matching(entities []*domain.PlanningEntity, filter domain.EntityFilter) []*domain.PlanningEntity {
	filter.Kind, filter.Year = "", 0
	var out []*domain.PlanningEntity
	for _, e := range entities {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
