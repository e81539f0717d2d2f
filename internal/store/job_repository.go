package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adamwal/gpwetl/internal/contracts"
)

// JobRepository persists ETL job headers and their append-only detail
// events. Implements the jobaudit store contract.
type JobRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewJobRepository creates a new job repository.
func NewJobRepository(pool *pgxpool.Pool, schema string) *JobRepository {
	return &JobRepository{pool: pool, schema: schema}
}

// CreateJob inserts a running job header and returns its id.
func (r *JobRepository) CreateJob(ctx context.Context, job *contracts.Job) (int64, error) {
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encode job metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (job_name, job_type, status, started_at, target_date, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING job_id
	`, qualify(r.schema, "etl_jobs"))

	var id int64
	err = r.pool.QueryRow(ctx, query,
		job.Name, job.Type, string(job.Status), job.StartedAt, job.TargetDate, metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

// AppendDetail inserts one per-instrument event row. Detail rows are
// insert-only; retries append new rows instead of updating old ones.
func (r *JobRepository) AppendDetail(ctx context.Context, d contracts.JobDetail) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (job_id, instrument_id, symbol, operation, date_processed, record_count, error_details, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`, qualify(r.schema, "etl_job_details"))

	_, err := r.pool.Exec(ctx, query,
		d.JobID, d.InstrumentID, d.Symbol, d.Operation,
		d.DateProcessed, d.RecordCount, d.ErrorDetails, d.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert job detail for %s: %w", d.Symbol, err)
	}
	return nil
}

// FinalizeJob writes the terminal state and counters of a job.
func (r *JobRepository) FinalizeJob(ctx context.Context, job *contracts.Job) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			status = $2,
			completed_at = $3,
			duration_seconds = $4,
			records_processed = $5,
			records_inserted = $6,
			records_updated = $7,
			records_failed = $8,
			error_message = NULLIF($9, '')
		WHERE job_id = $1
	`, qualify(r.schema, "etl_jobs"))

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.CompletedAt, job.DurationSeconds,
		job.RecordsProcessed, job.RecordsInserted, job.RecordsUpdated, job.RecordsFailed,
		job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("finalize job %d: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalize job %d: no such job", job.ID)
	}
	return nil
}

// GetJob loads one job header by id.
func (r *JobRepository) GetJob(ctx context.Context, id int64) (*contracts.Job, error) {
	query := fmt.Sprintf(`
		SELECT job_id, job_name, job_type, status, started_at, completed_at,
		       COALESCE(duration_seconds, 0), records_processed, records_inserted,
		       records_updated, records_failed, COALESCE(error_message, ''), target_date
		FROM %s
		WHERE job_id = $1
	`, qualify(r.schema, "etl_jobs"))

	var j contracts.Job
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.Name, &j.Type, &status, &j.StartedAt, &j.CompletedAt,
		&j.DurationSeconds, &j.RecordsProcessed, &j.RecordsInserted,
		&j.RecordsUpdated, &j.RecordsFailed, &j.ErrorMessage, &j.TargetDate,
	)
	if err != nil {
		return nil, err
	}
	j.Status = contracts.JobStatus(status)
	return &j, nil
}

// ListRecentJobs returns the newest job headers, most recent first.
func (r *JobRepository) ListRecentJobs(ctx context.Context, limit int) ([]*contracts.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT job_id, job_name, job_type, status, started_at, completed_at,
		       COALESCE(duration_seconds, 0), records_processed, records_inserted,
		       records_updated, records_failed, COALESCE(error_message, ''), target_date
		FROM %s
		ORDER BY started_at DESC
		LIMIT $1
	`, qualify(r.schema, "etl_jobs"))

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*contracts.Job
	for rows.Next() {
		var j contracts.Job
		var status string
		if err := rows.Scan(
			&j.ID, &j.Name, &j.Type, &status, &j.StartedAt, &j.CompletedAt,
			&j.DurationSeconds, &j.RecordsProcessed, &j.RecordsInserted,
			&j.RecordsUpdated, &j.RecordsFailed, &j.ErrorMessage, &j.TargetDate,
		); err != nil {
			return nil, err
		}
		j.Status = contracts.JobStatus(status)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// ListDetails returns the audit trail of one job in insert order.
func (r *JobRepository) ListDetails(ctx context.Context, jobID int64) ([]contracts.JobDetail, error) {
	query := fmt.Sprintf(`
		SELECT job_id, instrument_id, symbol, operation, date_processed,
		       record_count, COALESCE(error_details, ''), duration_ms
		FROM %s
		WHERE job_id = $1
		ORDER BY detail_id ASC
	`, qualify(r.schema, "etl_job_details"))

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []contracts.JobDetail
	for rows.Next() {
		var d contracts.JobDetail
		var durationMS int64
		if err := rows.Scan(
			&d.JobID, &d.InstrumentID, &d.Symbol, &d.Operation,
			&d.DateProcessed, &d.RecordCount, &d.ErrorDetails, &durationMS,
		); err != nil {
			return nil, err
		}
		d.Duration = time.Duration(durationMS) * time.Millisecond
		details = append(details, d)
	}
	return details, rows.Err()
}
