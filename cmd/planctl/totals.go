package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/memory"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type totalsFlags struct {
	budgetFile   string
	forecastFile string
	year         int
	ratio        string
	monthly      bool
	filter       domain.EntityFilter
}

func newTotalsCmd(opts *options) *cobra.Command {
	f := &totalsFlags{}
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Yearly budget, actual and forecast totals",
		Example: "  planctl totals --budget sales_budget.json --forecast rolling_forecast.json --year 2025\n" +
			"  planctl totals --budget sales_budget.json --monthly --customer CUST-001",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTotals(cmd, opts, f)
		},
	}

	cmd.Flags().StringVarP(&f.budgetFile, "budget", "b", "", "Budget document (JSON)")
	cmd.Flags().StringVarP(&f.forecastFile, "forecast", "f", "", "Forecast document (JSON)")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Planning year, defaults to the reference date's year")
	cmd.Flags().StringVar(&f.ratio, "ratio", service.DefaultFallbackRatio.String(), "Share of plan counted as actual for months without one")
	cmd.Flags().BoolVar(&f.monthly, "monthly", false, "Print the month-by-month breakdown")
	cmd.Flags().StringVar(&f.filter.CustomerRef, "customer", "", "Filter by customer ref")
	cmd.Flags().StringVar(&f.filter.ItemRef, "item", "", "Filter by item ref")
	cmd.Flags().StringVar(&f.filter.Category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&f.filter.Brand, "brand", "", "Filter by brand")
	cmd.Flags().StringVar(&f.filter.Search, "search", "", "Free-text filter on names, category and brand")
	return cmd
}

func runTotals(cmd *cobra.Command, opts *options, f *totalsFlags) error {
	if f.budgetFile == "" && f.forecastFile == "" {
		return fmt.Errorf("at least one of --budget or --forecast is required")
	}
	clock, err := opts.clock()
	if err != nil {
		return err
	}
	ratio, err := decimal.NewFromString(f.ratio)
	if err != nil || ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("--ratio must be a number between 0 and 1")
	}

	dashboard, err := loadDashboard(f.budgetFile, f.forecastFile, ratio, clock)
	if err != nil {
		return err
	}
	year := f.year
	if year == 0 {
		year = dashboard.CurrentYear()
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if f.monthly {
		months, err := dashboard.GetMonthly(ctx, year, f.filter)
		if err != nil {
			return err
		}
		if opts.asJSON {
			return writeJSON(out, months)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Month\tBudget\tActual\tForecast\t")
		for _, m := range months {
			marker := ""
			if m.IsPast {
				marker = "*"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t\n", m.Month, marker,
				m.Budget.Value.StringFixed(2), m.Actual.Value.StringFixed(2), m.Forecast.Value.StringFixed(2))
		}
		return w.Flush()
	}

	summary, err := dashboard.GetSummary(ctx, year, f.filter)
	if err != nil {
		return err
	}
	if opts.asJSON {
		return writeJSON(out, summary)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Year\t%d\n", summary.Year)
	fmt.Fprintf(w, "Budget\t%s\t%d units\n", summary.Totals.Budget.Value.StringFixed(2), summary.Totals.Budget.Units)
	fmt.Fprintf(w, "Actual\t%s\t%d units\n", summary.Totals.Actual.Value.StringFixed(2), summary.Totals.Actual.Units)
	fmt.Fprintf(w, "Forecast\t%s\t%d units\n", summary.Totals.Forecast.Value.StringFixed(2), summary.Totals.Forecast.Units)
	fmt.Fprintf(w, "Past months\t%s\n", joinMonths(summary.PastMonths))
	return w.Flush()
}

// loadDashboard seeds an in-memory store from the documents and wraps it in the dashboard service
func loadDashboard(budgetFile, forecastFile string, ratio decimal.Decimal, clock domain.Clock) (*service.DashboardService, error) {
	store := memory.NewStore()
	for kind, path := range map[domain.EntityKind]string{domain.KindBudget: budgetFile, domain.KindForecast: forecastFile} {
		entities, err := loadEntities(path, kind)
		if err != nil {
			return nil, err
		}
		if err := store.Entities().ReplaceAll(kind, entities); err != nil {
			return nil, err
		}
	}
	return service.NewDashboardService(store.Entities(), service.NewAggregationService(ratio), clock), nil
}

func joinMonths(months []domain.MonthName) string {
	if len(months) == 0 {
		return "-"
	}
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = string(m)
	}
	return strings.Join(names, " ")
}

func newRemainingCmd(opts *options) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "remaining",
		Short: "Months of a year that are still open for forecasting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			clock, err := opts.clock()
			if err != nil {
				return err
			}
			dashboard := service.NewDashboardService(memory.NewStore().Entities(), nil, clock)
			if year == 0 {
				year = dashboard.CurrentYear()
			}
			cal := dashboard.GetCalendar(year)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), cal)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Past:      %s\nRemaining: %s\n", joinMonths(cal.Past), joinMonths(cal.Remaining))
			return nil
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Planning year, defaults to the reference date's year")
	return cmd
}
