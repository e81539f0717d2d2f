package contracts

import "time"

// JobStatus is the lifecycle state of an ETL job record.
// Valid transitions: running -> completed, running -> failed.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one persisted ETL run.
type Job struct {
	ID               int64
	Name             string
	Type             string
	Status           JobStatus
	StartedAt        time.Time
	CompletedAt      *time.Time
	DurationSeconds  int64
	RecordsProcessed int
	RecordsInserted  int
	RecordsUpdated   int
	RecordsFailed    int
	ErrorMessage     string
	TargetDate       time.Time
	Metadata         map[string]interface{}
}

// SuccessRate returns the fraction of attempted records that landed,
// in [0, 1]. A job with nothing attempted counts as fully successful.
func (j Job) SuccessRate() float64 {
	if j.RecordsProcessed == 0 {
		return 1.0
	}
	return float64(j.RecordsInserted+j.RecordsUpdated) / float64(j.RecordsProcessed)
}

// JobDetail is one append-only audit event for a single instrument within
// a job. Details are never updated after insert: a retried instrument gets
// a fresh row.
type JobDetail struct {
	JobID         int64
	InstrumentID  int64
	Symbol        string
	Operation     string // upsert | failed
	DateProcessed time.Time
	RecordCount   int
	ErrorDetails  string
	Duration      time.Duration
}
