package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adamwal/gpwetl/internal/contracts"
)

// gpwExchangeCode identifies the Warsaw Stock Exchange row in exchanges.
const gpwExchangeCode = "GPW"

// InstrumentRepository resolves symbols to instrument identities.
// SSOT: instrument lookup and registration happen only here.
type InstrumentRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewInstrumentRepository creates a new instrument repository.
func NewInstrumentRepository(pool *pgxpool.Pool, schema string) *InstrumentRepository {
	return &InstrumentRepository{pool: pool, schema: schema}
}

// GetOrCreate resolves a symbol to its instrument row, registering the
// exchange and the stock or index on first sight. Registration is
// idempotent under the unique symbol constraint.
func (r *InstrumentRepository) GetOrCreate(ctx context.Context, symbol, name string, kind contracts.InstrumentKind) (*contracts.Instrument, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown instrument kind %q for %s", kind, symbol)
	}

	exchangeID, err := r.getOrCreateExchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve exchange: %w", err)
	}

	inst := &contracts.Instrument{
		Symbol:     symbol,
		Name:       name,
		Kind:       kind,
		ExchangeID: exchangeID,
	}

	switch kind {
	case contracts.KindStock:
		query := fmt.Sprintf(`
			INSERT INTO %s (symbol, company_name, exchange_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (symbol) DO UPDATE SET company_name = EXCLUDED.company_name
			RETURNING stock_id
		`, qualify(r.schema, "stocks"))
		if err := r.pool.QueryRow(ctx, query, symbol, name, exchangeID).Scan(&inst.StockID); err != nil {
			return nil, fmt.Errorf("register stock %s: %w", symbol, err)
		}
		inst.ID = inst.StockID

	case contracts.KindIndex:
		query := fmt.Sprintf(`
			INSERT INTO %s (symbol, index_name, exchange_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (symbol) DO UPDATE SET index_name = EXCLUDED.index_name
			RETURNING index_id
		`, qualify(r.schema, "indices"))
		if err := r.pool.QueryRow(ctx, query, symbol, name, exchangeID).Scan(&inst.IndexID); err != nil {
			return nil, fmt.Errorf("register index %s: %w", symbol, err)
		}
		inst.ID = inst.IndexID
	}

	return inst, nil
}

func (r *InstrumentRepository) getOrCreateExchange(ctx context.Context) (int64, error) {
	var id int64
	query := fmt.Sprintf(
		`SELECT exchange_id FROM %s WHERE exchange_code = $1`,
		qualify(r.schema, "exchanges"))
	err := r.pool.QueryRow(ctx, query, gpwExchangeCode).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (exchange_code, exchange_name, country, currency)
		VALUES ($1, 'Warsaw Stock Exchange', 'Poland', 'PLN')
		ON CONFLICT (exchange_code) DO UPDATE SET exchange_name = EXCLUDED.exchange_name
		RETURNING exchange_id
	`, qualify(r.schema, "exchanges"))
	if err := r.pool.QueryRow(ctx, insert, gpwExchangeCode).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// InstrumentHistory summarizes the stored price coverage for a symbol,
// looking at both price tables. A symbol with no rows anywhere returns nil.
func (r *InstrumentRepository) InstrumentHistory(ctx context.Context, symbol string) (*contracts.InstrumentHistory, error) {
	stock, err := r.historyFrom(ctx, symbol, "stocks", "stock_prices", "stock_id")
	if err != nil {
		return nil, err
	}
	if stock != nil {
		return stock, nil
	}
	return r.historyFrom(ctx, symbol, "indices", "index_prices", "index_id")
}

func (r *InstrumentRepository) historyFrom(ctx context.Context, symbol, instTable, priceTable, idCol string) (*contracts.InstrumentHistory, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(p.*), MIN(p.trading_date_local), MAX(p.trading_date_local)
		FROM %s i
		JOIN %s p ON p.%s = i.%s
		WHERE i.symbol = $1
	`, qualify(r.schema, instTable), qualify(r.schema, priceTable), idCol, idCol)

	var h contracts.InstrumentHistory
	var earliest, latest *time.Time
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&h.RecordCount, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}
	if h.RecordCount == 0 {
		return nil, nil
	}

	if earliest != nil {
		h.EarliestDate = *earliest
	}
	if latest != nil {
		h.LatestDate = *latest
	}
	return &h, nil
}
