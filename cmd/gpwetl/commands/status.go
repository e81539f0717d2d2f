package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusLimit int

// statusCmd prints recent pipeline runs.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent pipeline runs",
	Long: `Prints the most recent ETL jobs with their outcome and counters.

Example:
  go run ./cmd/gpwetl status
  go run ./cmd/gpwetl status --limit 50`,
	RunE: showStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of jobs to show")
	rootCmd.AddCommand(statusCmd)
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	jobs, err := a.storeFor("").Jobs.ListRecentJobs(context.Background(), statusLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs recorded yet")
		return nil
	}

	fmt.Printf("%-6s %-20s %-10s %-12s %8s %8s %8s %8s\n",
		"ID", "NAME", "STATUS", "TARGET", "PROC", "INS", "UPD", "FAIL")
	for _, j := range jobs {
		fmt.Printf("%-6d %-20s %-10s %-12s %8d %8d %8d %8d\n",
			j.ID, j.Name, j.Status, j.TargetDate.Format("2006-01-02"),
			j.RecordsProcessed, j.RecordsInserted, j.RecordsUpdated, j.RecordsFailed)
		if j.ErrorMessage != "" {
			fmt.Printf("       error: %s\n", j.ErrorMessage)
		}
	}
	return nil
}
