package etl

import "github.com/adamwal/gpwetl/internal/contracts"

// LimitRecords applies a strategy decision to a feed response. Records
// arrive oldest first, so the cap keeps the most recent entries. An
// unlimited decision returns the slice untouched.
func LimitRecords(records []contracts.PriceRecord, d Decision) []contracts.PriceRecord {
	if d.MaxRecords == UnlimitedRecords || len(records) <= d.MaxRecords {
		return records
	}
	if d.MaxRecords <= 0 {
		return nil
	}
	return records[len(records)-d.MaxRecords:]
}
