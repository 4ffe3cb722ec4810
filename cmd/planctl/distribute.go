package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type distributeFlags struct {
	scheme      string
	year        int
	value       string
	units       int64
	weights     string
	percentages string
}

func newDistributeCmd(opts *options) *cobra.Command {
	f := &distributeFlags{}
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Spread a yearly value and unit target across the months",
		Example: "  planctl distribute --scheme seasonal --value 120000 --units 770\n" +
			"  planctl distribute --scheme custom --units 1200 --value 1200 --percentages 10,10,5,5,5,5,10,10,10,10,10,10",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDistribute(cmd, opts, f)
		},
	}

	cmd.Flags().StringVarP(&f.scheme, "scheme", "s", string(domain.SchemeEqual), "equal, seasonal, historical or custom")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Planning year, defaults to the reference date's year")
	cmd.Flags().StringVar(&f.value, "value", "0", "Yearly value to spread")
	cmd.Flags().Int64Var(&f.units, "units", 0, "Yearly units to spread")
	cmd.Flags().StringVar(&f.weights, "weights", "", "Twelve comma-separated historical weights")
	cmd.Flags().StringVar(&f.percentages, "percentages", "", "Twelve comma-separated custom percentages")
	return cmd
}

func runDistribute(cmd *cobra.Command, opts *options, f *distributeFlags) error {
	clock, err := opts.clock()
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(f.value)
	if err != nil {
		return fmt.Errorf("--value: %w", err)
	}
	weights, err := parseDecimalList(f.weights)
	if err != nil {
		return fmt.Errorf("--weights: %w", err)
	}
	percentages, err := parseDecimalList(f.percentages)
	if err != nil {
		return fmt.Errorf("--percentages: %w", err)
	}
	year := f.year
	if year == 0 {
		year = clock.Now().Year()
	}

	dist, err := service.NewDistributionService(clock).Distribute(domain.DistributionRequest{
		TotalValue:  value,
		TotalUnits:  f.units,
		Scheme:      domain.DistributionScheme(f.scheme),
		Year:        year,
		Weights:     weights,
		Percentages: percentages,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, dist)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Month\tUnits\tValue\t")
	for _, m := range dist.Months {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", m.Month, m.Units, m.Value.StringFixed(2))
	}
	fmt.Fprintf(w, "Total\t%d\t%s\t\n", dist.TotalUnits, dist.TotalValue.StringFixed(2))
	return w.Flush()
}

// parseDecimalList reads "1,2.5,3" into decimals; empty input yields nil
func parseDecimalList(raw string) ([]decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]decimal.Decimal, len(parts))
	for i, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		out[i] = d
	}
	return out, nil
}
