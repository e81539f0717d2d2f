package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwal/gpwetl/pkg/config"
	"github.com/adamwal/gpwetl/pkg/database"
)

// testDBCmd verifies database connectivity and prints pool statistics.
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Loads the configuration, connects to the database, pings it and
prints connection pool statistics.

Example:
  go run ./cmd/gpwetl test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== gpwetl Database Connection Test ===")

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Printf("Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	fmt.Println("Connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Println("\nHealth check:")
	fmt.Printf("  Healthy: %v\n", status.Healthy)
	fmt.Printf("  Response time: %v\n", status.ResponseTime)

	fmt.Println("\nConnection pool:")
	fmt.Printf("  Max connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("  Total connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("  Acquired: %d\n", status.Stats.AcquiredConns)
	fmt.Printf("  Idle: %d\n", status.Stats.IdleConns)
	fmt.Printf("  Acquire count: %d\n", status.Stats.AcquireCount)

	fmt.Println("\nAll checks passed")
	return nil
}

// maskPassword hides the credential part of the database URL for display.
func maskPassword(url string) string {
	if len(url) < 55 {
		if len(url) < 30 {
			return "***"
		}
		return url[:30] + "***"
	}
	return url[:30] + "***" + url[len(url)-25:]
}
