package util

import (
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
)

// IsPast reports whether a month of a year lies strictly before today's month.
// The current month itself is not past.
func IsPast(year int, month domain.MonthName, today time.Time) bool {
	if year < today.Year() {
		return true
	}
	if year > today.Year() {
		return false
	}
	idx, ok := domain.MonthIndex(month)
	if !ok {
		return false
	}
	return idx < int(today.Month())-1
}

// RemainingMonths returns the forecast-eligible months of a year in canonical order:
// from today's month onward for the current year, all months for a future year and
// none for a past year.
func RemainingMonths(year int, today time.Time) []domain.MonthName {
	switch {
	case year < today.Year():
		return []domain.MonthName{}
	case year > today.Year():
		out := make([]domain.MonthName, domain.MonthsPerYear)
		copy(out, domain.CanonicalMonths[:])
		return out
	}

	start := int(today.Month()) - 1
	out := make([]domain.MonthName, 0, domain.MonthsPerYear-start)
	out = append(out, domain.CanonicalMonths[start:]...)
	return out
}

// PastMonths returns the actual-bearing months of a year in canonical order
func PastMonths(year int, today time.Time) []domain.MonthName {
	out := make([]domain.MonthName, 0, domain.MonthsPerYear)
	for _, m := range domain.CanonicalMonths {
		if IsPast(year, m, today) {
			out = append(out, m)
		}
	}
	return out
}

// MonthStart returns the first day of a canonical month in UTC
func MonthStart(year int, month domain.MonthName) (time.Time, bool) {
	idx, ok := domain.MonthIndex(month)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(idx+1), 1, 0, 0, 0, 0, time.UTC), true
}
