package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options shared by every command
type options struct {
	today   string
	asJSON  bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "planctl",
		Short: "Sales planning engine CLI",
		Long:  "Compute budget, actual and forecast totals, spread yearly targets and preview scenarios from planning documents.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.today, "today", "", "Reference date (YYYY-MM-DD), defaults to now")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newTotalsCmd(opts),
		newRemainingCmd(opts),
		newDistributeCmd(opts),
		newScenarioCmd(opts),
	)
	return root
}

// clock returns the reference clock selected by --today
func (o *options) clock() (domain.Clock, error) {
	if o.today == "" {
		return domain.SystemClock{}, nil
	}
	at, err := time.Parse("2006-01-02", o.today)
	if err != nil {
		return nil, fmt.Errorf("--today: %w", err)
	}
	return domain.FixedClock{At: at}, nil
}

// loadEntities reads a namespace document (the format the API persists) from path
func loadEntities(path string, kind domain.EntityKind) ([]*domain.PlanningEntity, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entities, err := repository.DecodeEntities(data, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("file", path).Int("entities", len(entities)).Msg("Loaded planning document")
	return entities, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
