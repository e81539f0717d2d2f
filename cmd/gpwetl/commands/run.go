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

var (
	runDate   string
	runMode   string
	runSchema string
)

// runCmd executes a single pipeline pass.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily price pipeline once",
	Long: `Runs one pipeline pass for a logical date.

Without flags the run behaves like a scheduled trigger: the logical date
is today and the execution mode is resolved automatically. The --mode and
--date flags reproduce operator-triggered runs.

Example:
  go run ./cmd/gpwetl run
  go run ./cmd/gpwetl run --date 2024-04-02
  go run ./cmd/gpwetl run --date 2024-01-15 --mode backfill --schema test_stock_data`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "logical date YYYY-MM-DD (default today)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "force execution mode (backfill)")
	runCmd.Flags().StringVar(&runSchema, "schema", "", "target schema (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logical := runDate
	if logical == "" {
		logical = time.Now().Format("2006-01-02")
	}

	conf := map[string]interface{}{}
	if runMode != "" {
		if runMode != string(etl.ModeBackfill) {
			return fmt.Errorf("unsupported mode %q, only backfill can be forced", runMode)
		}
		conf["mode"] = runMode
	}
	if runSchema != "" {
		conf["schema"] = runSchema
	}

	rc := etl.RunContext{
		LogicalDate: logical,
		RunType:     etl.RunTypeManual,
		Conf:        conf,
	}
	if runMode == "" && runDate == "" {
		// A bare run mirrors the scheduled trigger.
		rc.RunType = etl.RunTypeScheduled
	}

	return a.runner(runSchema).Run(ctx, rc, defaultUniverse())
}
