package service

import (
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleRecords() []domain.MonthlyRecord {
	records := testutil.Records(2025, testutil.SampleRate, testutil.SamplePlanned, testutil.Actuals(55, 62, 68))
	for i := range records {
		records[i].Discount = decimal.RequireFromString("5.00")
	}
	return records
}

func TestScenario_ApplyScenario_DoesNotMutateInput(t *testing.T) {
	service := NewScenarioService()
	base := sampleRecords()
	snapshot := domain.CloneRecords(base)

	out, err := service.ApplyScenario(base, domain.ScenarioAdjustments{
		SalesGrowthPct:   decimal.NewFromInt(15),
		SeasonalitySkew:  dec("25"),
		DiscountDeltaPct: dec("-10"),
	})
	require.NoError(t, err)

	assert.Equal(t, snapshot, base)
	require.Len(t, out, len(base))
	*out[0].ActualQuantity = 999
	assert.Equal(t, int64(55), *base[0].ActualQuantity)
}

func TestScenario_ApplyScenario_FlatGrowth(t *testing.T) {
	service := NewScenarioService()

	out, err := service.ApplyScenario(sampleRecords(), domain.ScenarioAdjustments{
		SalesGrowthPct: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(66), out[0].PlannedQuantity)
	assert.Equal(t, int64(72), out[1].PlannedQuantity) // 71.5 rounds up
	assert.True(t, out[0].UnitRate.Equal(decimal.RequireFromString(testutil.SampleRate)))
	assert.True(t, out[0].Discount.Equal(decimal.RequireFromString("5.00")))
}

func TestScenario_ApplyScenario_SkewHitsRoundedTarget(t *testing.T) {
	service := NewScenarioService()

	tests := []struct {
		name   string
		growth string
		skew   string
		want   int64
	}{
		{"optimistic", "15", "25", 886}, // 770 * 1.15 = 885.5
		{"full curve", "10", "100", 847},
		{"no curve weight", "-10", "0", 693},
		{"shrink with curve", "-20", "50", 616},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := service.ApplyScenario(sampleRecords(), domain.ScenarioAdjustments{
				SalesGrowthPct:  decimal.RequireFromString(tt.growth),
				SeasonalitySkew: dec(tt.skew),
			})
			require.NoError(t, err)

			var total int64
			for _, r := range out {
				assert.GreaterOrEqual(t, r.PlannedQuantity, int64(0))
				total += r.PlannedQuantity
			}
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestScenario_ApplyScenario_SkewCannotDriveMonthNegative(t *testing.T) {
	service := NewScenarioService()
	base := testutil.Records(2025, "10", []int64{100}, nil)

	out, err := service.ApplyScenario(base, domain.ScenarioAdjustments{
		SalesGrowthPct:  decimal.NewFromInt(-50),
		SeasonalitySkew: dec("100"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)
	assert.Nil(t, out)
	assert.Equal(t, int64(100), base[0].PlannedQuantity)
}

func TestScenario_ApplyScenario_DiscountDelta(t *testing.T) {
	service := NewScenarioService()

	out, err := service.ApplyScenario(sampleRecords(), domain.ScenarioAdjustments{
		SalesGrowthPct:   decimal.Zero,
		DiscountDeltaPct: dec("-10"),
	})
	require.NoError(t, err)
	assert.True(t, out[3].Discount.Equal(decimal.RequireFromString("4.50")))

	out, err = service.ApplyScenario(sampleRecords(), domain.ScenarioAdjustments{
		SalesGrowthPct:   decimal.Zero,
		DiscountDeltaPct: dec("33.333"),
	})
	require.NoError(t, err)
	assert.True(t, out[3].Discount.Equal(decimal.RequireFromString("6.67")))
}

func TestScenario_ApplyScenario_InvalidAdjustments(t *testing.T) {
	service := NewScenarioService()

	tests := []struct {
		name string
		adj  domain.ScenarioAdjustments
	}{
		{"growth of -100", domain.ScenarioAdjustments{SalesGrowthPct: decimal.NewFromInt(-100)}},
		{"growth below -100", domain.ScenarioAdjustments{SalesGrowthPct: decimal.NewFromInt(-150)}},
		{"negative skew", domain.ScenarioAdjustments{SalesGrowthPct: decimal.Zero, SeasonalitySkew: dec("-1")}},
		{"skew above 100", domain.ScenarioAdjustments{SalesGrowthPct: decimal.Zero, SeasonalitySkew: dec("100.5")}},
		{"discount below -100", domain.ScenarioAdjustments{SalesGrowthPct: decimal.Zero, DiscountDeltaPct: dec("-101")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := service.ApplyScenario(sampleRecords(), tt.adj)
			assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)
			assert.Nil(t, out)
		})
	}
}

func TestScenario_Preview(t *testing.T) {
	service := NewScenarioService()

	result, err := service.Preview(sampleRecords(), domain.ScenarioAdjustments{
		SalesGrowthPct: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(770), result.Base.Units)
	assert.Equal(t, result.Adjusted.Units-770, result.UnitsDelta)
	assert.True(t, result.ValueDelta.Equal(result.Adjusted.Value.Sub(result.Base.Value)))
}

func TestScenario_Presets(t *testing.T) {
	service := NewScenarioService()

	presets := service.Presets()
	require.Len(t, presets, 3)

	preset, err := service.Preset("pessimistic")
	require.NoError(t, err)
	assert.True(t, preset.Adjustments.SalesGrowthPct.Equal(decimal.NewFromInt(-10)))

	_, err = service.Preset("moonshot")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
