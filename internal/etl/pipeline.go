package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/internal/jobaudit"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// jobName identifies the daily price run in the jobs table.
const jobName = "daily_price_etl"

// Fetcher downloads the daily history of one symbol, oldest record first.
type Fetcher interface {
	DailyHistory(ctx context.Context, symbol string) ([]contracts.PriceRecord, error)
}

// InstrumentStore resolves symbols to instrument identities.
type InstrumentStore interface {
	GetOrCreate(ctx context.Context, symbol, name string, kind contracts.InstrumentKind) (*contracts.Instrument, error)
}

// PriceWriter persists one instrument's batch atomically.
type PriceWriter interface {
	UpsertBatch(ctx context.Context, inst *contracts.Instrument, records []contracts.PriceRecord) (inserted, updated int, err error)
}

// QualityChecker evaluates a landed batch and persists the outcomes.
type QualityChecker interface {
	Evaluate(jobID int64, inst contracts.Instrument, records []contracts.PriceRecord) []contracts.QualityMetric
}

// QualityWriter stores check outcomes.
type QualityWriter interface {
	RecordMetrics(ctx context.Context, metrics []contracts.QualityMetric) error
}

// Runner executes one full pipeline run: mode resolution, the skip gate,
// per-instrument extraction and upsert, quality checks and the job audit
// trail. One instrument failing never stops the others; each instrument
// commits on its own.
type Runner struct {
	resolver    *Resolver
	selector    *Selector
	fetcher     Fetcher
	instruments InstrumentStore
	prices      PriceWriter
	quality     QualityChecker
	qualityOut  QualityWriter
	audit       jobaudit.Store
	log         *logger.Logger
	now         func() time.Time
}

// NewRunner wires a pipeline.
func NewRunner(
	resolver *Resolver,
	selector *Selector,
	fetcher Fetcher,
	instruments InstrumentStore,
	prices PriceWriter,
	quality QualityChecker,
	qualityOut QualityWriter,
	audit jobaudit.Store,
	log *logger.Logger,
) *Runner {
	return &Runner{
		resolver:    resolver,
		selector:    selector,
		fetcher:     fetcher,
		instruments: instruments,
		prices:      prices,
		quality:     quality,
		qualityOut:  qualityOut,
		audit:       audit,
		log:         log.WithField("module", "pipeline"),
		now:         time.Now,
	}
}

// Run executes one pipeline pass over the universe. A skipped run is a
// success that touches nothing. Per-instrument failures are isolated and
// reflected in the job outcome; only infrastructure failures propagate.
func (r *Runner) Run(ctx context.Context, rc RunContext, universe []contracts.Instrument) error {
	cfg := r.resolver.Resolve(rc)

	if skip, reason := ShouldSkip(cfg, r.resolver.cal); skip {
		r.log.Infof("Run skipped: %s", reason)
		return nil
	}

	recorder := jobaudit.NewRecorder(r.audit, r.log)
	_, err := recorder.Begin(ctx, jobName, "etl", cfg.TargetDate, map[string]interface{}{
		"mode":     string(cfg.Mode),
		"reason":   cfg.Reason,
		"schema":   cfg.Schema,
		"run_type": string(cfg.RunType),
	})
	if err != nil {
		return fmt.Errorf("open job record: %w", err)
	}

	for _, entry := range universe {
		if err := ctx.Err(); err != nil {
			failErr := fmt.Errorf("run cancelled: %w", err)
			// Finalize with a detached context so the job record still
			// reflects the abort.
			if finErr := recorder.Fail(context.WithoutCancel(ctx), failErr); finErr != nil {
				r.log.WithError(finErr).Error("Failed to finalize cancelled job")
			}
			return failErr
		}

		r.processInstrument(ctx, recorder, cfg, entry)
	}

	return recorder.Complete(ctx)
}

// processInstrument handles one symbol end to end. All failures are
// captured in the audit trail instead of propagating.
func (r *Runner) processInstrument(ctx context.Context, recorder *jobaudit.Recorder, cfg ExecutionConfig, entry contracts.Instrument) {
	started := r.now()
	symLog := r.log.WithField("symbol", entry.Symbol)

	inst, err := r.instruments.GetOrCreate(ctx, entry.Symbol, entry.Name, entry.Kind)
	if err != nil {
		symLog.WithError(err).Error("Instrument resolution failed")
		recorder.RecordFailure(ctx, entry, cfg.TargetDate, 1, err, r.now().Sub(started))
		return
	}

	decision := r.selector.Select(ctx, inst.Symbol, cfg)
	symLog.WithFields(map[string]interface{}{
		"strategy":    decision.Strategy,
		"max_records": decision.MaxRecords,
		"reason":      decision.Reason,
	}).Debug("Extraction strategy selected")

	records, err := r.fetcher.DailyHistory(ctx, inst.Symbol)
	if err != nil {
		symLog.WithError(err).Error("Download failed")
		recorder.RecordFailure(ctx, *inst, cfg.TargetDate, 1, err, r.now().Sub(started))
		return
	}

	records = LimitRecords(records, decision)
	if len(records) == 0 {
		symLog.Debug("No records to load")
		return
	}

	inserted, updated, err := r.prices.UpsertBatch(ctx, inst, records)
	if err != nil {
		symLog.WithError(err).Error("Upsert failed")
		recorder.RecordFailure(ctx, *inst, cfg.TargetDate, len(records), err, r.now().Sub(started))
		return
	}
	recorder.RecordUpsert(ctx, *inst, cfg.TargetDate, inserted, updated, r.now().Sub(started))

	if r.validationEnabled(cfg) {
		metrics := r.quality.Evaluate(recorder.Job().ID, *inst, records)
		// Quality persistence failures never fail the instrument.
		if err := r.qualityOut.RecordMetrics(ctx, metrics); err != nil {
			symLog.WithError(err).Error("Failed to record quality metrics")
		}
	}

	symLog.WithFields(map[string]interface{}{
		"inserted": inserted,
		"updated":  updated,
	}).Info("Instrument loaded")
}

func (r *Runner) validationEnabled(cfg ExecutionConfig) bool {
	if cfg.Overrides.EnableValidation != nil {
		return *cfg.Overrides.EnableValidation
	}
	return true
}
