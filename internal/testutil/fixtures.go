package testutil

import (
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// SampleRate is the unit rate of the seeded sample budget line
const SampleRate = "285.50"

// SamplePlanned is the planned units of the seeded sample budget line (770 in total)
var SamplePlanned = []int64{60, 65, 70, 75, 80, 85, 80, 75, 50, 45, 45, 40}

// Records builds twelve canonical monthly records. actual may be shorter than twelve;
// missing entries are treated as not recorded.
func Records(year int, rate string, planned []int64, actual []*int64) []domain.MonthlyRecord {
	r := decimal.RequireFromString(rate)
	out := make([]domain.MonthlyRecord, domain.MonthsPerYear)
	for i, name := range domain.CanonicalMonths {
		rec := domain.MonthlyRecord{
			Month:    name,
			Year:     year,
			UnitRate: r,
			Discount: decimal.Zero,
		}
		if i < len(planned) {
			rec.PlannedQuantity = planned[i]
		}
		if i < len(actual) && actual[i] != nil {
			v := *actual[i]
			rec.ActualQuantity = &v
		}
		out[i] = rec
	}
	return out
}

// Actuals converts a list of quantities into recorded actuals
func Actuals(values ...int64) []*int64 {
	out := make([]*int64, len(values))
	for i, v := range values {
		out[i] = domain.Int64Ptr(v)
	}
	return out
}

// NewEntity builds a draft planning entity with twelve months
func NewEntity(id string, kind domain.EntityKind, year int, rate string, planned []int64, actual []*int64) *domain.PlanningEntity {
	now := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &domain.PlanningEntity{
		ID:           id,
		Kind:         kind,
		CustomerRef:  "CUST-001",
		ItemRef:      "ITEM-001",
		CustomerName: "Acme Corporation",
		ItemName:     "Widget Pro",
		Category:     "Widgets",
		Brand:        "Acme",
		Year:         year,
		Months:       Records(year, rate, planned, actual),
		Status:       domain.EntityStatusDraft,
		CreatedBy:    "alice",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FixedClock returns a clock pinned to the given date
func FixedClock(year int, month time.Month, day int) domain.FixedClock {
	return domain.FixedClock{At: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}
