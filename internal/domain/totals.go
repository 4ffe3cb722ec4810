package domain

import "github.com/shopspring/decimal"

// SeriesTotal is a value/units pair for one series
type SeriesTotal struct {
	Value decimal.Decimal `json:"value"`
	Units int64           `json:"units"`
}

// Add returns the sum of two series totals
func (s SeriesTotal) Add(other SeriesTotal) SeriesTotal {
	return SeriesTotal{Value: s.Value.Add(other.Value), Units: s.Units + other.Units}
}

// ZeroSeries is the empty series total
func ZeroSeries() SeriesTotal {
	return SeriesTotal{Value: decimal.Zero}
}

// Totals holds the three parallel yearly series
type Totals struct {
	Budget   SeriesTotal `json:"budget"`
	Actual   SeriesTotal `json:"actual"`
	Forecast SeriesTotal `json:"forecast"`
}

// MonthTotals is the per-month breakdown of the three series
type MonthTotals struct {
	Month    MonthName   `json:"month"`
	IsPast   bool        `json:"isPast"`
	Budget   SeriesTotal `json:"budget"`
	Actual   SeriesTotal `json:"actual"`
	Forecast SeriesTotal `json:"forecast"`
}

// StatusTotals counts entities in one status and sums their yearly value
type StatusTotals struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}
