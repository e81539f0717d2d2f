package quality

import (
	"io"
	"testing"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/logger"
)

func newTestValidator() *Validator {
	return NewValidator(logger.NewWriter(io.Discard, "error"))
}

func rec(day int, open, high, low, close float64, volume int64) contracts.PriceRecord {
	return contracts.PriceRecord{
		Symbol:      "XTB",
		TradingDate: time.Date(2024, time.April, day, 0, 0, 0, 0, time.UTC),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       close,
		Volume:      volume,
	}
}

func failedChecks(metrics []contracts.QualityMetric) map[string]int {
	out := make(map[string]int)
	for _, m := range metrics {
		if !m.Passed {
			out[m.CheckName]++
		}
	}
	return out
}

func TestEvaluateCleanBatch(t *testing.T) {
	v := newTestValidator()
	inst := contracts.Instrument{Symbol: "XTB", Kind: contracts.KindStock}

	metrics := v.Evaluate(1, inst, []contracts.PriceRecord{
		rec(2, 11.5, 11.8, 11.4, 11.7, 100000),
		rec(3, 11.7, 12.0, 11.6, 11.9, 95000),
	})

	if failed := failedChecks(metrics); len(failed) != 0 {
		t.Errorf("clean batch reported failures: %v", failed)
	}
	// 2 records x ohlc+volume, plus one gap check between them.
	if len(metrics) != 5 {
		t.Errorf("metrics = %d, want 5", len(metrics))
	}
}

func TestEvaluatePriceGap(t *testing.T) {
	v := newTestValidator()
	inst := contracts.Instrument{Symbol: "XTB", Kind: contracts.KindStock}

	metrics := v.Evaluate(1, inst, []contracts.PriceRecord{
		rec(2, 10, 10.2, 9.9, 10, 100000),
		rec(3, 13, 13.5, 12.8, 13, 100000), // +30% close to close
	})

	if failedChecks(metrics)[CheckPriceGap] != 1 {
		t.Errorf("30%% move must fail the gap check: %v", failedChecks(metrics))
	}
}

func TestEvaluateZeroVolume(t *testing.T) {
	v := newTestValidator()

	stock := contracts.Instrument{Symbol: "XTB", Kind: contracts.KindStock}
	metrics := v.Evaluate(1, stock, []contracts.PriceRecord{rec(2, 10, 10.2, 9.9, 10, 0)})
	if failedChecks(metrics)[CheckVolume] != 1 {
		t.Error("zero volume on a stock must fail")
	}

	index := contracts.Instrument{Symbol: "WIG20", Kind: contracts.KindIndex}
	metrics = v.Evaluate(1, index, []contracts.PriceRecord{rec(2, 2400, 2450, 2390, 2445, 0)})
	if failedChecks(metrics)[CheckVolume] != 0 {
		t.Error("zero volume on an index is normal")
	}
}

func TestEvaluateOHLCViolation(t *testing.T) {
	v := newTestValidator()
	inst := contracts.Instrument{Symbol: "XTB", Kind: contracts.KindStock}

	// High below low.
	metrics := v.Evaluate(1, inst, []contracts.PriceRecord{rec(2, 10, 9, 9.5, 9.8, 100)})
	if failedChecks(metrics)[CheckOHLC] != 1 {
		t.Error("inverted high/low must fail the OHLC check")
	}
}
