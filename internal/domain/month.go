package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthName is one of the twelve canonical month names (Jan…Dec)
type MonthName string

const (
	January   MonthName = "Jan"
	February  MonthName = "Feb"
	March     MonthName = "Mar"
	April     MonthName = "Apr"
	May       MonthName = "May"
	June      MonthName = "Jun"
	July      MonthName = "Jul"
	August    MonthName = "Aug"
	September MonthName = "Sep"
	October   MonthName = "Oct"
	November  MonthName = "Nov"
	December  MonthName = "Dec"
)

// MonthsPerYear is the number of canonical months
const MonthsPerYear = 12

// CanonicalMonths is the fixed month ordering used by every rollup
var CanonicalMonths = [MonthsPerYear]MonthName{
	January, February, March, April, May, June,
	July, August, September, October, November, December,
}

// MonthIndex returns the zero-based position of a month name. The lookup is case-sensitive.
func MonthIndex(name MonthName) (int, bool) {
	for i, m := range CanonicalMonths {
		if m == name {
			return i, true
		}
	}
	return -1, false
}

// IsValid reports whether the name is one of the canonical months
func (m MonthName) IsValid() bool {
	_, ok := MonthIndex(m)
	return ok
}

// MonthlyRecord is one month's quantity/rate/stock tuple within a planning entity
type MonthlyRecord struct {
	Month           MonthName       `json:"month"`
	Year            int             `json:"year"`
	PlannedQuantity int64           `json:"plannedQuantity"`
	ActualQuantity  *int64          `json:"actualQuantity,omitempty"`
	UnitRate        decimal.Decimal `json:"unitRate"`
	StockOnHand     int64           `json:"stockOnHand"`
	GoodsInTransit  int64           `json:"goodsInTransit"`
	Discount        decimal.Decimal `json:"discount"`
	Notes           string          `json:"notes,omitempty"`
}

// TotalValue is the planned value of the month (quantity × rate)
func (r MonthlyRecord) TotalValue() decimal.Decimal {
	return r.UnitRate.Mul(decimal.NewFromInt(r.PlannedQuantity))
}

// HasActual reports whether an actual quantity was recorded for the month
func (r MonthlyRecord) HasActual() bool {
	return r.ActualQuantity != nil
}

// Validate checks the record's field ranges
func (r MonthlyRecord) Validate() error {
	if !r.Month.IsValid() {
		return fmt.Errorf("%w: unknown month %q", ErrMalformedRecord, r.Month)
	}
	if r.PlannedQuantity < 0 {
		return fmt.Errorf("%w: %s planned quantity is negative", ErrMalformedRecord, r.Month)
	}
	if r.ActualQuantity != nil && *r.ActualQuantity < 0 {
		return fmt.Errorf("%w: %s actual quantity is negative", ErrMalformedRecord, r.Month)
	}
	if !r.UnitRate.IsPositive() {
		return fmt.Errorf("%w: %s unit rate must be positive", ErrMalformedRecord, r.Month)
	}
	if r.StockOnHand < 0 || r.GoodsInTransit < 0 {
		return fmt.Errorf("%w: %s stock figures are negative", ErrMalformedRecord, r.Month)
	}
	if r.Discount.IsNegative() {
		return fmt.Errorf("%w: %s discount is negative", ErrMalformedRecord, r.Month)
	}
	return nil
}

// Clone returns a copy that shares no pointers with the receiver
func (r MonthlyRecord) Clone() MonthlyRecord {
	out := r
	if r.ActualQuantity != nil {
		actual := *r.ActualQuantity
		out.ActualQuantity = &actual
	}
	return out
}

// CloneRecords deep-copies a record slice
func CloneRecords(records []MonthlyRecord) []MonthlyRecord {
	if records == nil {
		return nil
	}
	out := make([]MonthlyRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// ValidateMonthSet checks that records hold exactly one entry per canonical month and
// returns them in canonical order.
func ValidateMonthSet(records []MonthlyRecord) ([]MonthlyRecord, error) {
	if len(records) != MonthsPerYear {
		return nil, fmt.Errorf("%w: expected %d months, got %d", ErrMalformedRecord, MonthsPerYear, len(records))
	}

	var ordered [MonthsPerYear]*MonthlyRecord
	for i := range records {
		r := records[i]
		if err := r.Validate(); err != nil {
			return nil, err
		}
		idx, _ := MonthIndex(r.Month)
		if ordered[idx] != nil {
			return nil, fmt.Errorf("%w: duplicate month %s", ErrMalformedRecord, r.Month)
		}
		clone := r.Clone()
		ordered[idx] = &clone
	}

	out := make([]MonthlyRecord, MonthsPerYear)
	for i, r := range ordered {
		if r == nil {
			return nil, fmt.Errorf("%w: missing month %s", ErrMalformedRecord, CanonicalMonths[i])
		}
		out[i] = *r
	}
	return out, nil
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}
