package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adamwal/gpwetl/internal/contracts"
)

// PriceRepository persists daily OHLCV rows.
// SSOT: price writes go through UpsertBatch only.
type PriceRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool, schema string) *PriceRepository {
	return &PriceRepository{pool: pool, schema: schema}
}

// UpsertBatch writes all records for one instrument inside a single
// transaction, so an instrument either lands completely or not at all.
// Rows are keyed on (instrument, trading date); replaying a date updates
// in place. Returns how many rows were newly inserted vs updated.
func (r *PriceRepository) UpsertBatch(ctx context.Context, inst *contracts.Instrument, records []contracts.PriceRecord) (inserted, updated int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	table, idCol, instID, err := r.target(inst)
	if err != nil {
		return 0, 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, trading_date_local, open_price, high_price, low_price, close_price, volume, record_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (%s, trading_date_local) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			record_hash = EXCLUDED.record_hash
		RETURNING (xmax = 0) AS was_inserted
	`, qualify(r.schema, table), idCol, idCol)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upsert tx for %s: %w", inst.Symbol, err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		var wasInserted bool
		err := tx.QueryRow(ctx, query,
			instID, rec.TradingDate, rec.Open, rec.High, rec.Low, rec.Close, rec.Volume, rec.Hash(),
		).Scan(&wasInserted)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert %s %s: %w",
				inst.Symbol, rec.TradingDate.Format("2006-01-02"), err)
		}
		if wasInserted {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit upsert tx for %s: %w", inst.Symbol, err)
	}
	return inserted, updated, nil
}

// LatestDate returns the newest stored trading date for an instrument, or
// the zero time when nothing is stored yet.
func (r *PriceRepository) LatestDate(ctx context.Context, inst *contracts.Instrument) (latest time.Time, err error) {
	table, idCol, instID, err := r.target(inst)
	if err != nil {
		return time.Time{}, err
	}

	query := fmt.Sprintf(
		`SELECT MAX(trading_date_local) FROM %s WHERE %s = $1`,
		qualify(r.schema, table), idCol)

	var d *time.Time
	if err := r.pool.QueryRow(ctx, query, instID).Scan(&d); err != nil {
		return time.Time{}, fmt.Errorf("latest date for %s: %w", inst.Symbol, err)
	}
	if d != nil {
		latest = *d
	}
	return latest, nil
}

func (r *PriceRepository) target(inst *contracts.Instrument) (table, idCol string, instID int64, err error) {
	switch inst.Kind {
	case contracts.KindStock:
		return "stock_prices", "stock_id", inst.StockID, nil
	case contracts.KindIndex:
		return "index_prices", "index_id", inst.IndexID, nil
	default:
		return "", "", 0, fmt.Errorf("unknown instrument kind %q for %s", inst.Kind, inst.Symbol)
	}
}
