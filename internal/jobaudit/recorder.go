// Package jobaudit records ETL job lifecycles: a header row per run and an
// append-only trail of per-instrument events.
package jobaudit

import (
	"context"
	"fmt"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// failureRateThreshold marks a run failed when fewer than half of the
// attempted records landed, even if the run itself finished.
const failureRateThreshold = 0.5

// Store persists job headers and detail events.
type Store interface {
	CreateJob(ctx context.Context, job *contracts.Job) (int64, error)
	AppendDetail(ctx context.Context, detail contracts.JobDetail) error
	FinalizeJob(ctx context.Context, job *contracts.Job) error
}

// Recorder tracks one job's lifetime. Create one per run with Begin,
// feed it per-instrument results, then call Complete or Fail exactly once.
type Recorder struct {
	store Store
	log   *logger.Logger
	job   *contracts.Job
	now   func() time.Time
}

// NewRecorder makes a recorder bound to the given store.
func NewRecorder(store Store, log *logger.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log.WithField("module", "jobaudit"),
		now:   time.Now,
	}
}

// WithClock overrides the time source, used in tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Begin opens a job record in running state and returns its id.
func (r *Recorder) Begin(ctx context.Context, name, jobType string, targetDate time.Time, metadata map[string]interface{}) (int64, error) {
	job := &contracts.Job{
		Name:       name,
		Type:       jobType,
		Status:     contracts.JobRunning,
		StartedAt:  r.now(),
		TargetDate: targetDate,
		Metadata:   metadata,
	}

	id, err := r.store.CreateJob(ctx, job)
	if err != nil {
		return 0, fmt.Errorf("create job record: %w", err)
	}
	job.ID = id
	r.job = job

	r.log.WithFields(map[string]interface{}{
		"job_id":      id,
		"job_name":    name,
		"target_date": targetDate.Format("2006-01-02"),
	}).Info("Job started")

	return id, nil
}

// Job returns the tracked job, nil before Begin.
func (r *Recorder) Job() *contracts.Job {
	return r.job
}

// RecordUpsert logs a successful per-instrument upsert. Counter updates
// are in-memory; the detail row is persisted immediately so a crashed run
// still leaves its trail.
func (r *Recorder) RecordUpsert(ctx context.Context, inst contracts.Instrument, dateProcessed time.Time, inserted, updated int, took time.Duration) {
	r.job.RecordsProcessed += inserted + updated
	r.job.RecordsInserted += inserted
	r.job.RecordsUpdated += updated

	r.appendDetail(ctx, contracts.JobDetail{
		JobID:         r.job.ID,
		InstrumentID:  inst.ID,
		Symbol:        inst.Symbol,
		Operation:     "upsert",
		DateProcessed: dateProcessed,
		RecordCount:   inserted + updated,
		Duration:      took,
	})
}

// RecordFailure logs a failed per-instrument attempt.
func (r *Recorder) RecordFailure(ctx context.Context, inst contracts.Instrument, dateProcessed time.Time, attempted int, cause error, took time.Duration) {
	if attempted < 1 {
		attempted = 1
	}
	r.job.RecordsProcessed += attempted
	r.job.RecordsFailed += attempted

	r.appendDetail(ctx, contracts.JobDetail{
		JobID:         r.job.ID,
		InstrumentID:  inst.ID,
		Symbol:        inst.Symbol,
		Operation:     "failed",
		DateProcessed: dateProcessed,
		RecordCount:   attempted,
		ErrorDetails:  cause.Error(),
		Duration:      took,
	})
}

func (r *Recorder) appendDetail(ctx context.Context, d contracts.JobDetail) {
	// A lost detail row must not fail the run it describes.
	if err := r.store.AppendDetail(ctx, d); err != nil {
		r.log.WithError(err).Errorf("Failed to append job detail for %s", d.Symbol)
	}
}

// Complete closes the job. A finished run whose success rate fell below
// the threshold is recorded as failed, not completed.
func (r *Recorder) Complete(ctx context.Context) error {
	status := contracts.JobCompleted
	rate := r.job.SuccessRate()
	if rate < failureRateThreshold {
		status = contracts.JobFailed
		r.job.ErrorMessage = fmt.Sprintf(
			"success rate %.1f%% below threshold: %d of %d records failed",
			rate*100, r.job.RecordsFailed, r.job.RecordsProcessed)
	}
	return r.finalize(ctx, status)
}

// Fail closes the job as failed with the given cause.
func (r *Recorder) Fail(ctx context.Context, cause error) error {
	r.job.ErrorMessage = cause.Error()
	return r.finalize(ctx, contracts.JobFailed)
}

func (r *Recorder) finalize(ctx context.Context, status contracts.JobStatus) error {
	completedAt := r.now()
	r.job.Status = status
	r.job.CompletedAt = &completedAt
	r.job.DurationSeconds = int64(completedAt.Sub(r.job.StartedAt).Seconds())

	if err := r.store.FinalizeJob(ctx, r.job); err != nil {
		return fmt.Errorf("finalize job %d: %w", r.job.ID, err)
	}

	r.log.WithFields(map[string]interface{}{
		"job_id":    r.job.ID,
		"status":    string(status),
		"processed": r.job.RecordsProcessed,
		"inserted":  r.job.RecordsInserted,
		"updated":   r.job.RecordsUpdated,
		"failed":    r.job.RecordsFailed,
		"duration":  r.job.DurationSeconds,
	}).Info("Job finished")

	return nil
}
