package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adamwal/gpwetl/internal/contracts"
)

// QualityRepository persists data-quality check outcomes.
type QualityRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewQualityRepository creates a new quality repository.
func NewQualityRepository(pool *pgxpool.Pool, schema string) *QualityRepository {
	return &QualityRepository{pool: pool, schema: schema}
}

// RecordMetrics inserts a batch of check outcomes.
func (r *QualityRepository) RecordMetrics(ctx context.Context, metrics []contracts.QualityMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (job_id, symbol, trading_date, check_name, passed, details)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`, qualify(r.schema, "data_quality_metrics"))

	for _, m := range metrics {
		_, err := r.pool.Exec(ctx, query,
			m.JobID, m.Symbol, m.TradingDate, m.CheckName, m.Passed, m.Details,
		)
		if err != nil {
			return fmt.Errorf("record quality metric %s/%s: %w", m.Symbol, m.CheckName, err)
		}
	}
	return nil
}

// FailedChecks returns the failed check outcomes of one job.
func (r *QualityRepository) FailedChecks(ctx context.Context, jobID int64) ([]contracts.QualityMetric, error) {
	query := fmt.Sprintf(`
		SELECT job_id, symbol, trading_date, check_name, passed, COALESCE(details, '')
		FROM %s
		WHERE job_id = $1 AND passed = FALSE
		ORDER BY symbol, trading_date
	`, qualify(r.schema, "data_quality_metrics"))

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.QualityMetric
	for rows.Next() {
		var m contracts.QualityMetric
		if err := rows.Scan(&m.JobID, &m.Symbol, &m.TradingDate, &m.CheckName, &m.Passed, &m.Details); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
