package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwal/gpwetl/internal/etl"
)

// Backfill range limits. GPW data before 1991 does not exist and Stooq
// serves nothing older than the early 90s anyway.
const (
	backfillFloorYear = 1990
	backfillMaxDays   = 3650
)

var (
	backfillFrom   string
	backfillTo     string
	backfillSchema string
)

// backfillCmd replays a historical date range.
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Replay the pipeline over a historical date range",
	Long: `Runs the pipeline in backfill mode for every trading-eligible day
in [--from, --to]. Weekends are skipped; weekday holidays are still
processed so historical coverage stays complete.

Example:
  go run ./cmd/gpwetl backfill --from 2024-01-01 --to 2024-03-31
  go run ./cmd/gpwetl backfill --from 2023-01-01 --to 2023-12-31 --schema test_stock_data`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "range start YYYY-MM-DD (required)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "range end YYYY-MM-DD (required)")
	backfillCmd.Flags().StringVar(&backfillSchema, "schema", "", "target schema (default from config)")
	backfillCmd.MarkFlagRequired("from")
	backfillCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	from, to, err := validateBackfillRange(backfillFrom, backfillTo, time.Now())
	if err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := a.runner(backfillSchema)
	universe := defaultUniverse()

	conf := map[string]interface{}{"mode": "backfill"}
	if backfillSchema != "" {
		conf["schema"] = backfillSchema
	}

	var failures int
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rc := etl.RunContext{
			LogicalDate: d.Format("2006-01-02"),
			RunType:     etl.RunTypeBackfill,
			Conf:        conf,
		}
		if err := runner.Run(ctx, rc, universe); err != nil {
			if ctx.Err() != nil {
				return err
			}
			failures++
			a.log.WithError(err).Errorf("Backfill failed for %s", rc.LogicalDate)
		}
	}

	if failures > 0 {
		return fmt.Errorf("backfill finished with %d failed days", failures)
	}
	a.log.Infof("Backfill complete: %s to %s", backfillFrom, backfillTo)
	return nil
}

// validateBackfillRange enforces the date-range rules: well-formed dates,
// ordered endpoints, nothing before the floor year, nothing in the future
// and at most ten years per invocation.
func validateBackfillRange(fromRaw, toRaw string, now time.Time) (from, to time.Time, err error) {
	from, err = time.Parse("2006-01-02", fromRaw)
	if err != nil {
		return from, to, fmt.Errorf("invalid --from date %q: %w", fromRaw, err)
	}
	to, err = time.Parse("2006-01-02", toRaw)
	if err != nil {
		return from, to, fmt.Errorf("invalid --to date %q: %w", toRaw, err)
	}

	if to.Before(from) {
		return from, to, fmt.Errorf("--to %s precedes --from %s", toRaw, fromRaw)
	}
	if from.Year() < backfillFloorYear {
		return from, to, fmt.Errorf("--from %s precedes %d, no data exists that far back", fromRaw, backfillFloorYear)
	}
	if to.After(now) {
		return from, to, fmt.Errorf("--to %s is in the future", toRaw)
	}
	if days := int(to.Sub(from).Hours() / 24); days > backfillMaxDays {
		return from, to, fmt.Errorf("range spans %d days, maximum is %d", days, backfillMaxDays)
	}
	return from, to, nil
}
