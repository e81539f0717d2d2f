package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adamwal/gpwetl/internal/scheduler"
	"github.com/adamwal/gpwetl/internal/scheduler/jobs"
)

// schedulerCmd manages the scheduler daemon.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Starts the scheduler daemon or triggers registered jobs.

Registered jobs:
  daily_price_etl - weekdays at 18:30, after the GPW session close

Subcommands:
  start - start the scheduler daemon
  run   - trigger a registered job immediately

Example:
  go run ./cmd/gpwetl scheduler start
  go run ./cmd/gpwetl scheduler run daily_price_etl`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	RunE:  startScheduler,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job_name]",
	Short: "Trigger a registered job immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  triggerJob,
}

func init() {
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	rootCmd.AddCommand(schedulerCmd)
}

func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	dailyJob := jobs.NewDailyETLJob(a.runner(""), defaultUniverse(), a.log)
	if err := sched.AddJob(dailyJob); err != nil {
		return nil, fmt.Errorf("register daily job: %w", err)
	}
	return sched, nil
}

func startScheduler(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildScheduler(a)
	if err != nil {
		return err
	}

	sched.Start()
	a.log.Info("Scheduler running, Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	sched.Stop()
	return nil
}

func triggerJob(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildScheduler(a)
	if err != nil {
		return err
	}

	if err := sched.RunJob(args[0]); err != nil {
		return err
	}

	// RunJob is asynchronous; wait for the interrupt like the daemon does.
	a.log.Infof("Job %s triggered, Ctrl+C to exit", args[0])
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}
