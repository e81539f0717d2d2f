package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwal/gpwetl/internal/api"
	"github.com/adamwal/gpwetl/internal/api/handlers"
)

// apiCmd starts the operational HTTP API.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the operational HTTP API",
	Long: `Serves the operational endpoints:

  GET /health
  GET /api/jobs
  GET /api/jobs/{id}
  GET /api/jobs/{id}/details
  GET /api/calendar/{date}

Example:
  go run ./cmd/gpwetl api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	st := a.storeFor("")
	router := api.NewRouter(
		handlers.NewJobsHandler(st.Jobs, a.log),
		handlers.NewCalendarHandler(a.cal),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
