// Package store implements the PostgreSQL persistence layer over the
// normalized GPW schema.
package store

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store groups the repositories over one pool and one target schema.
// The schema is chosen per run (prod_stock_data or test_stock_data), so
// every query qualifies its tables explicitly.
type Store struct {
	Instruments *InstrumentRepository
	Prices      *PriceRepository
	Jobs        *JobRepository
	Quality     *QualityRepository
}

// New builds the repositories against a schema.
func New(pool *pgxpool.Pool, schema string) *Store {
	return &Store{
		Instruments: NewInstrumentRepository(pool, schema),
		Prices:      NewPriceRepository(pool, schema),
		Jobs:        NewJobRepository(pool, schema),
		Quality:     NewQualityRepository(pool, schema),
	}
}

// qualify renders a schema-qualified, quoted table name. Schema names come
// from operator configuration, so they are sanitized rather than trusted.
func qualify(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
