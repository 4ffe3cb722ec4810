package domain

import "github.com/shopspring/decimal"

// ScenarioAdjustments are the what-if knobs applied to a base projection
type ScenarioAdjustments struct {
	SalesGrowthPct   decimal.Decimal  `json:"salesGrowthPct"`
	SeasonalitySkew  *decimal.Decimal `json:"seasonalitySkew,omitempty"`
	DiscountDeltaPct *decimal.Decimal `json:"discountDeltaPct,omitempty"`
}

// ScenarioPreset is a named set of adjustments offered to planners
type ScenarioPreset struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Adjustments ScenarioAdjustments `json:"adjustments"`
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ScenarioPresets are the built-in what-if scenarios
var ScenarioPresets = []ScenarioPreset{
	{
		ID:          "optimistic",
		Name:        "Optimistic",
		Description: "Strong demand with peak-season concentration",
		Adjustments: ScenarioAdjustments{
			SalesGrowthPct:   decimal.RequireFromString("15"),
			SeasonalitySkew:  decimalPtr("25"),
			DiscountDeltaPct: decimalPtr("-10"),
		},
	},
	{
		ID:          "conservative",
		Name:        "Conservative",
		Description: "Modest growth spread evenly across the year",
		Adjustments: ScenarioAdjustments{
			SalesGrowthPct: decimal.RequireFromString("5"),
		},
	},
	{
		ID:          "pessimistic",
		Name:        "Pessimistic",
		Description: "Demand contraction with deeper discounting",
		Adjustments: ScenarioAdjustments{
			SalesGrowthPct:   decimal.RequireFromString("-10"),
			DiscountDeltaPct: decimalPtr("20"),
		},
	},
}
