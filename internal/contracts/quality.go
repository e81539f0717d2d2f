package contracts

import "time"

// QualityMetric is one recorded data-quality check outcome for an
// instrument on a trading date.
type QualityMetric struct {
	JobID       int64
	Symbol      string
	TradingDate time.Time
	CheckName   string
	Passed      bool
	Details     string
}
