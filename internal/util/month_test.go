package util

import (
	"testing"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestIsPast(t *testing.T) {
	today := date(2025, time.June, 1)

	tests := []struct {
		name     string
		year     int
		month    domain.MonthName
		expected bool
	}{
		{"current month is not past", 2025, domain.June, false},
		{"previous month is past", 2025, domain.May, true},
		{"january of current year is past", 2025, domain.January, true},
		{"next month is not past", 2025, domain.July, false},
		{"previous year december is past", 2024, domain.December, true},
		{"previous year same month is past", 2024, domain.June, true},
		{"next year january is not past", 2026, domain.January, false},
		{"lowercase name is not a canonical month", 2025, domain.MonthName("jan"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPast(tt.year, tt.month, today)
			if got != tt.expected {
				t.Errorf("IsPast(%d, %s) = %v, want %v", tt.year, tt.month, got, tt.expected)
			}
		})
	}
}

func TestIsPast_JanuaryHasNoPastMonths(t *testing.T) {
	today := date(2025, time.January, 15)
	for _, m := range domain.CanonicalMonths {
		if IsPast(2025, m, today) {
			t.Errorf("IsPast(2025, %s) = true in January, want false", m)
		}
	}
}

func TestRemainingMonths(t *testing.T) {
	today := date(2025, time.June, 1)

	got := RemainingMonths(2025, today)
	want := []domain.MonthName{domain.June, domain.July, domain.August, domain.September, domain.October, domain.November, domain.December}
	if len(got) != len(want) {
		t.Fatalf("RemainingMonths(2025) returned %d months, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RemainingMonths(2025)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRemainingMonths_PastYearsAreEmpty(t *testing.T) {
	today := date(2025, time.June, 1)
	for _, year := range []int{1999, 2020, 2024} {
		if got := RemainingMonths(year, today); len(got) != 0 {
			t.Errorf("RemainingMonths(%d) = %v, want empty", year, got)
		}
	}
}

func TestRemainingMonths_FutureYearsAreComplete(t *testing.T) {
	today := date(2025, time.June, 1)
	for _, year := range []int{2026, 2030} {
		got := RemainingMonths(year, today)
		if len(got) != domain.MonthsPerYear {
			t.Fatalf("RemainingMonths(%d) returned %d months, want 12", year, len(got))
		}
		for i, m := range domain.CanonicalMonths {
			if got[i] != m {
				t.Errorf("RemainingMonths(%d)[%d] = %s, want %s", year, i, got[i], m)
			}
		}
	}
}

func TestRemainingMonths_DecemberLeavesOneMonth(t *testing.T) {
	got := RemainingMonths(2025, date(2025, time.December, 31))
	if len(got) != 1 || got[0] != domain.December {
		t.Errorf("RemainingMonths in December = %v, want [Dec]", got)
	}
}

func TestPastMonths(t *testing.T) {
	got := PastMonths(2025, date(2025, time.June, 1))
	if len(got) != 5 || got[4] != domain.May {
		t.Errorf("PastMonths(2025) = %v, want Jan..May", got)
	}
}

func TestMonthStart(t *testing.T) {
	got, ok := MonthStart(2025, domain.March)
	if !ok || !got.Equal(date(2025, time.March, 1)) {
		t.Errorf("MonthStart(2025, Mar) = %v, %v", got, ok)
	}
	if _, ok := MonthStart(2025, domain.MonthName("March")); ok {
		t.Error("MonthStart accepted a non-canonical month name")
	}
}
