package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type scenarioFlags struct {
	file     string
	entityID string
	preset   string
	growth   string
	skew     string
	discount string
}

func newScenarioCmd(opts *options) *cobra.Command {
	f := &scenarioFlags{}
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Preview a what-if scenario on one planning line",
		Example: "  planctl scenario --file sales_budget.json --id 3f2c... --preset optimistic\n" +
			"  planctl scenario --file rolling_forecast.json --id 3f2c... --growth 8 --skew 40",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd, opts, f)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "Planning document (JSON)")
	cmd.Flags().StringVar(&f.entityID, "id", "", "Entity to adjust")
	cmd.Flags().StringVar(&f.preset, "preset", "", "Built-in scenario: optimistic, conservative or pessimistic")
	cmd.Flags().StringVar(&f.growth, "growth", "", "Sales growth in percent")
	cmd.Flags().StringVar(&f.skew, "skew", "", "Seasonality skew in percent (0-100)")
	cmd.Flags().StringVar(&f.discount, "discount", "", "Discount change in percent")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("id")
	cmd.MarkFlagsMutuallyExclusive("preset", "growth")
	return cmd
}

func runScenario(cmd *cobra.Command, opts *options, f *scenarioFlags) error {
	entities, err := loadEntities(f.file, domain.KindBudget)
	if err != nil {
		return err
	}
	var base *domain.PlanningEntity
	for _, e := range entities {
		if e.ID == f.entityID {
			base = e
			break
		}
	}
	if base == nil {
		return fmt.Errorf("%w: %s not in %s", domain.ErrEntityNotFound, f.entityID, f.file)
	}

	scenarios := service.NewScenarioService()
	adj, err := f.adjustments(scenarios)
	if err != nil {
		return err
	}
	result, err := scenarios.Preview(base.Months, adj)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, result)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Month\tBase\tAdjusted\t")
	for i, m := range result.Records {
		fmt.Fprintf(w, "%s\t%d\t%d\t\n", m.Month, base.Months[i].PlannedQuantity, m.PlannedQuantity)
	}
	fmt.Fprintf(w, "Units\t%d\t%d\t\n", result.Base.Units, result.Adjusted.Units)
	fmt.Fprintf(w, "Value\t%s\t%s\t\n", result.Base.Value.StringFixed(2), result.Adjusted.Value.StringFixed(2))
	return w.Flush()
}

// adjustments resolves the preset or the explicit knobs
func (f *scenarioFlags) adjustments(scenarios *service.ScenarioService) (domain.ScenarioAdjustments, error) {
	if f.preset != "" {
		preset, err := scenarios.Preset(f.preset)
		if err != nil {
			return domain.ScenarioAdjustments{}, err
		}
		return preset.Adjustments, nil
	}

	adj := domain.ScenarioAdjustments{SalesGrowthPct: decimal.Zero}
	if f.growth != "" {
		d, err := decimal.NewFromString(f.growth)
		if err != nil {
			return adj, fmt.Errorf("--growth: %w", err)
		}
		adj.SalesGrowthPct = d
	}
	if f.skew != "" {
		d, err := decimal.NewFromString(f.skew)
		if err != nil {
			return adj, fmt.Errorf("--skew: %w", err)
		}
		adj.SeasonalitySkew = &d
	}
	if f.discount != "" {
		d, err := decimal.NewFromString(f.discount)
		if err != nil {
			return adj, fmt.Errorf("--discount: %w", err)
		}
		adj.DiscountDeltaPct = &d
	}
	return adj, nil
}
