// Package contracts defines the shared types exchanged between the ETL
// pipeline, the storage layer and the data-source clients.
package contracts

import "time"

// InstrumentKind distinguishes the supported instrument categories.
type InstrumentKind string

const (
	KindStock InstrumentKind = "stock"
	KindIndex InstrumentKind = "index"
)

// Valid reports whether the kind is one of the supported categories.
func (k InstrumentKind) Valid() bool {
	return k == KindStock || k == KindIndex
}

// Instrument is a resolved instrument identity from the normalized schema.
// StockID or IndexID is set depending on Kind.
type Instrument struct {
	ID         int64
	Symbol     string
	Name       string
	Kind       InstrumentKind
	ExchangeID int64
	StockID    int64
	IndexID    int64
}

// InstrumentHistory summarizes the persisted price history of one
// instrument, used for extraction-strategy inference.
type InstrumentHistory struct {
	RecordCount  int
	EarliestDate time.Time
	LatestDate   time.Time
}

// DaysSinceLatest returns full calendar days between the latest stored
// record and now.
func (h InstrumentHistory) DaysSinceLatest(now time.Time) int {
	if h.RecordCount == 0 || h.LatestDate.IsZero() {
		return 0
	}
	return int(now.Sub(h.LatestDate).Hours() / 24)
}
