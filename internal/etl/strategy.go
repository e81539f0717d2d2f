package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// Extraction strategies control how much history is fetched per instrument.
const (
	StrategyIncremental  = "incremental"
	StrategyHistorical   = "historical"
	StrategyFullBackfill = "full_backfill"
)

// Record caps per strategy. UnlimitedRecords means the raw feed is
// ingested without truncation and is reachable only through an explicit
// full_backfill request, never through inference.
const (
	UnlimitedRecords       = -1
	overrideRecordCap      = 1000
	historicalRecordCap    = 1000
	staleRecordCap         = 500
	incrementalRecordCap   = 1
	sparseHistoryThreshold = 30
)

// Decision is the outcome of one selector layer. A nil Decision means the
// layer has no opinion and the next layer is consulted.
type Decision struct {
	Strategy   string
	MaxRecords int
	Reason     string
}

// HistoryReader reports what is already stored for an instrument. A nil
// history with a nil error means the instrument has no rows at all.
type HistoryReader interface {
	InstrumentHistory(ctx context.Context, symbol string) (*contracts.InstrumentHistory, error)
}

// Selector resolves the extraction strategy for one instrument by walking
// four layers in priority order:
//
//  1. per-symbol override from run configuration
//  2. run-wide extraction_mode from run configuration
//  3. inference from stored history depth and freshness
//  4. run-level fallback derived from the execution mode
//
// SSOT: the selector is the only place extraction strategies are decided.
type Selector struct {
	history        HistoryReader
	staleAfterDays int
	log            *logger.Logger
	now            func() time.Time
}

// NewSelector builds a Selector backed by the given history reader.
func NewSelector(history HistoryReader, staleAfterDays int, log *logger.Logger) *Selector {
	return &Selector{
		history:        history,
		staleAfterDays: staleAfterDays,
		log:            log,
		now:            time.Now,
	}
}

// WithClock replaces the wall clock. Test hook.
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

// Select walks the layers in order and returns the first decision.
// It never returns nil: the fallback layer always decides.
func (s *Selector) Select(ctx context.Context, symbol string, cfg ExecutionConfig) Decision {
	if d := s.symbolOverride(symbol, cfg.Overrides); d != nil {
		return *d
	}
	if d := s.runExtractionMode(cfg.Overrides); d != nil {
		return *d
	}
	if d := s.inferFromHistory(ctx, symbol); d != nil {
		return *d
	}
	return s.fallback(cfg)
}

// symbolOverride handles per-symbol strategy pins from run configuration.
// Overridden historical strategies are capped to keep a single mistyped
// symbol from triggering an unbounded fetch.
func (s *Selector) symbolOverride(symbol string, ov Overrides) *Decision {
	strat, ok := ov.Instruments[symbol]
	if !ok {
		return nil
	}
	switch strings.ToLower(strat) {
	case StrategyIncremental:
		return &Decision{
			Strategy:   StrategyIncremental,
			MaxRecords: incrementalRecordCap,
			Reason:     fmt.Sprintf("per-symbol override for %s", symbol),
		}
	case StrategyHistorical, StrategyFullBackfill:
		return &Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: overrideRecordCap,
			Reason:     fmt.Sprintf("per-symbol override for %s (capped)", symbol),
		}
	default:
		s.log.Warnf("ignoring unknown strategy override %q for %s", strat, symbol)
		return nil
	}
}

// runExtractionMode handles the run-wide extraction_mode setting.
func (s *Selector) runExtractionMode(ov Overrides) *Decision {
	switch strings.ToLower(ov.ExtractionMode) {
	case "":
		return nil
	case StrategyFullBackfill:
		return &Decision{
			Strategy:   StrategyFullBackfill,
			MaxRecords: UnlimitedRecords,
			Reason:     "run configuration requested full backfill",
		}
	case StrategyHistorical:
		return &Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: historicalRecordCap,
			Reason:     "run configuration requested historical extraction",
		}
	case StrategyIncremental:
		return &Decision{
			Strategy:   StrategyIncremental,
			MaxRecords: incrementalRecordCap,
			Reason:     "run configuration requested incremental extraction",
		}
	default:
		s.log.Warnf("ignoring unknown extraction_mode %q", ov.ExtractionMode)
		return nil
	}
}

// inferFromHistory inspects stored coverage. Any storage error falls
// through to the run-level fallback so a degraded database never blocks
// the run.
func (s *Selector) inferFromHistory(ctx context.Context, symbol string) *Decision {
	hist, err := s.history.InstrumentHistory(ctx, symbol)
	if err != nil {
		s.log.WithError(err).Warnf("history lookup failed for %s, using run fallback", symbol)
		return nil
	}

	if hist == nil || hist.RecordCount == 0 {
		return &Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: historicalRecordCap,
			Reason:     fmt.Sprintf("new instrument: %s has no stored records", symbol),
		}
	}

	if days := hist.DaysSinceLatest(s.now()); days > s.staleAfterDays {
		return &Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: staleRecordCap,
			Reason:     fmt.Sprintf("stale data: %s last updated %d days ago", symbol, days),
		}
	}

	if hist.RecordCount < sparseHistoryThreshold {
		return &Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: historicalRecordCap,
			Reason:     fmt.Sprintf("sparse history: %s has only %d records", symbol, hist.RecordCount),
		}
	}

	return &Decision{
		Strategy:   StrategyIncremental,
		MaxRecords: incrementalRecordCap,
		Reason:     fmt.Sprintf("healthy history: %s is current", symbol),
	}
}

// fallback maps the run's execution mode to a strategy when nothing more
// specific applied.
func (s *Selector) fallback(cfg ExecutionConfig) Decision {
	if cfg.Mode == ModeBackfill {
		return Decision{
			Strategy:   StrategyHistorical,
			MaxRecords: historicalRecordCap,
			Reason:     "fallback: backfill run",
		}
	}
	return Decision{
		Strategy:   StrategyIncremental,
		MaxRecords: incrementalRecordCap,
		Reason:     "fallback: incremental run",
	}
}
