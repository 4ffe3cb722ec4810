package domain

import "time"

// DashboardSummary contains the headline figures of one planning year
type DashboardSummary struct {
	Year            int                           `json:"year"`
	Today           time.Time                     `json:"today"`
	Totals          Totals                        `json:"totals"`
	FallbackRatio   string                        `json:"fallbackRatio"`
	PastMonths      []MonthName                   `json:"pastMonths"`
	RemainingMonths []MonthName                   `json:"remainingMonths"`
	BudgetStatus    map[EntityStatus]StatusTotals `json:"budgetStatus"`
	ForecastStatus  map[EntityStatus]StatusTotals `json:"forecastStatus"`
}

// CalendarMonth describes where one month sits relative to today
type CalendarMonth struct {
	Month     MonthName `json:"month"`
	Start     time.Time `json:"start"`
	IsPast    bool      `json:"isPast"`
	IsCurrent bool      `json:"isCurrent"`
}

// PlanningCalendar splits a year into actual-bearing and forecast-eligible months
type PlanningCalendar struct {
	Year      int             `json:"year"`
	Today     time.Time       `json:"today"`
	Months    []CalendarMonth `json:"months"`
	Past      []MonthName     `json:"past"`
	Remaining []MonthName     `json:"remaining"`
}
