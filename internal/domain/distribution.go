package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DistributionScheme selects how a yearly total is spread across months
type DistributionScheme string

const (
	SchemeEqual      DistributionScheme = "equal"
	SchemeSeasonal   DistributionScheme = "seasonal"
	SchemeHistorical DistributionScheme = "historical"
	SchemeCustom     DistributionScheme = "custom"
)

// SeasonalCurve is the fixed relative weight per month used by the seasonal scheme.
// The weights sum to exactly 1.
var SeasonalCurve = [MonthsPerYear]decimal.Decimal{
	decimal.RequireFromString("0.07"), // Jan
	decimal.RequireFromString("0.07"), // Feb
	decimal.RequireFromString("0.08"), // Mar
	decimal.RequireFromString("0.08"), // Apr
	decimal.RequireFromString("0.09"), // May
	decimal.RequireFromString("0.09"), // Jun
	decimal.RequireFromString("0.10"), // Jul
	decimal.RequireFromString("0.09"), // Aug
	decimal.RequireFromString("0.08"), // Sep
	decimal.RequireFromString("0.08"), // Oct
	decimal.RequireFromString("0.08"), // Nov
	decimal.RequireFromString("0.09"), // Dec
}

// CustomPercentTolerance is how far custom percentages may drift from 100
var CustomPercentTolerance = decimal.RequireFromString("0.01")

// DistributionRequest is the input of the distribution allocator
type DistributionRequest struct {
	TotalValue  decimal.Decimal    `json:"totalValue"`
	TotalUnits  int64              `json:"totalUnits"`
	Scheme      DistributionScheme `json:"scheme"`
	Year        int                `json:"year"`
	Weights     []decimal.Decimal  `json:"weights,omitempty"`
	Percentages []decimal.Decimal  `json:"percentages,omitempty"`
}

// MonthAllocation is one month's share of a distribution
type MonthAllocation struct {
	Month MonthName       `json:"month"`
	Units int64           `json:"units"`
	Value decimal.Decimal `json:"value"`
}

// Distribution is the result of spreading a yearly total across the twelve months
type Distribution struct {
	Scheme     DistributionScheme `json:"scheme"`
	Year       int                `json:"year"`
	TotalValue decimal.Decimal    `json:"totalValue"`
	TotalUnits int64              `json:"totalUnits"`
	Months     []MonthAllocation  `json:"months"`
	AppliedAt  time.Time          `json:"appliedAt"`
}

// Records turns the allocation into twelve monthly records. A positive unitRate prices
// every month at that rate. A zero unitRate prices each month at its own value per unit;
// the last month carrying units absorbs the rounding of the earlier rates and the value of
// months without units, so the records sum to TotalValue to the cent.
func (d *Distribution) Records(unitRate decimal.Decimal) []MonthlyRecord {
	records := make([]MonthlyRecord, len(d.Months))
	last := -1
	for i, m := range d.Months {
		records[i] = MonthlyRecord{
			Month:           m.Month,
			Year:            d.Year,
			PlannedQuantity: m.Units,
			UnitRate:        unitRate,
			Discount:        decimal.Zero,
		}
		if m.Units > 0 {
			last = i
		}
	}
	if unitRate.IsPositive() || last < 0 {
		return records
	}

	priced := decimal.Zero
	for i, m := range d.Months {
		if m.Units == 0 || i == last {
			continue
		}
		records[i].UnitRate = perUnit(m.Value, m.Units)
		priced = priced.Add(records[i].TotalValue())
	}
	records[last].UnitRate = perUnit(d.TotalValue.Sub(priced), d.Months[last].Units)
	return records
}

// perUnit divides value by units with enough places that units × rate stays within half a
// cent of value
func perUnit(value decimal.Decimal, units int64) decimal.Decimal {
	places := int32(len(strconv.FormatInt(units, 10))) + 2
	return value.DivRound(decimal.NewFromInt(units), places)
}
