// Package jobs defines the concrete scheduled jobs of the pipeline.
package jobs

import (
	"context"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/internal/etl"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// DailyETLJob runs the daily price pipeline after the GPW session close.
// SSOT: the daily price schedule lives only in this job.
type DailyETLJob struct {
	runner   *etl.Runner
	universe []contracts.Instrument
	logger   *logger.Logger
}

// NewDailyETLJob creates the daily pipeline job over a fixed universe.
func NewDailyETLJob(runner *etl.Runner, universe []contracts.Instrument, log *logger.Logger) *DailyETLJob {
	return &DailyETLJob{
		runner:   runner,
		universe: universe,
		logger:   log,
	}
}

// Name returns the job name.
func (j *DailyETLJob) Name() string {
	return "daily_price_etl"
}

// Schedule runs weekdays at 18:30 local time, after the session close.
func (j *DailyETLJob) Schedule() string {
	return "0 30 18 * * 1-5"
}

// Run executes one scheduled pipeline pass for today's logical date.
func (j *DailyETLJob) Run(ctx context.Context) error {
	rc := etl.RunContext{
		LogicalDate: time.Now().Format("2006-01-02"),
		RunType:     etl.RunTypeScheduled,
	}

	j.logger.Infof("Starting scheduled pipeline run for %s", rc.LogicalDate)
	return j.runner.Run(ctx, rc, j.universe)
}
