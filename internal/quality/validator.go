// Package quality runs post-load sanity checks over freshly ingested
// price batches and records the outcomes as metrics.
package quality

import (
	"fmt"
	"math"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// maxDailyMoveRatio flags close-to-close moves beyond 20 percent. Large
// real moves happen on GPW, so a failed check is a review signal, not a
// rejection.
const maxDailyMoveRatio = 0.20

// Check names as stored in the metrics table.
const (
	CheckOHLC     = "ohlc_consistency"
	CheckPriceGap = "price_gap"
	CheckVolume   = "volume_sanity"
)

// Validator evaluates ingested batches. Checks never block ingestion;
// they only produce metrics.
type Validator struct {
	log *logger.Logger
}

// NewValidator creates a validator.
func NewValidator(log *logger.Logger) *Validator {
	return &Validator{log: log.WithField("module", "quality")}
}

// Evaluate runs all checks over one instrument's batch, oldest record
// first, and returns a metric per check per record.
func (v *Validator) Evaluate(jobID int64, inst contracts.Instrument, records []contracts.PriceRecord) []contracts.QualityMetric {
	var metrics []contracts.QualityMetric
	var prevClose float64

	for i, rec := range records {
		metrics = append(metrics,
			v.checkOHLC(jobID, rec),
			v.checkVolume(jobID, inst, rec),
		)
		if i > 0 && prevClose > 0 {
			metrics = append(metrics, v.checkGap(jobID, rec, prevClose))
		}
		prevClose = rec.Close
	}

	for _, m := range metrics {
		if !m.Passed {
			v.log.Warnf("Quality check %s failed for %s on %s: %s",
				m.CheckName, m.Symbol, m.TradingDate.Format("2006-01-02"), m.Details)
		}
	}
	return metrics
}

func (v *Validator) checkOHLC(jobID int64, rec contracts.PriceRecord) contracts.QualityMetric {
	m := metric(jobID, rec, CheckOHLC)
	if err := rec.Validate(); err != nil {
		m.Passed = false
		m.Details = err.Error()
	}
	return m
}

func (v *Validator) checkGap(jobID int64, rec contracts.PriceRecord, prevClose float64) contracts.QualityMetric {
	m := metric(jobID, rec, CheckPriceGap)
	move := math.Abs(rec.Close-prevClose) / prevClose
	if move > maxDailyMoveRatio {
		m.Passed = false
		m.Details = fmt.Sprintf("close moved %.1f%% from previous close %.4f", move*100, prevClose)
	}
	return m
}

func (v *Validator) checkVolume(jobID int64, inst contracts.Instrument, rec contracts.PriceRecord) contracts.QualityMetric {
	m := metric(jobID, rec, CheckVolume)
	// Indices report no turnover; zero volume is only suspicious on stocks.
	if inst.Kind == contracts.KindStock && rec.Volume == 0 {
		m.Passed = false
		m.Details = "zero volume on a stock trading day"
	}
	return m
}

func metric(jobID int64, rec contracts.PriceRecord, check string) contracts.QualityMetric {
	return contracts.QualityMetric{
		JobID:       jobID,
		Symbol:      rec.Symbol,
		TradingDate: rec.TradingDate,
		CheckName:   check,
		Passed:      true,
	}
}
