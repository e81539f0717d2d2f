package etl

import (
	"fmt"
	"time"

	"github.com/adamwal/gpwetl/internal/calendar"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// defaultBackfillBatchSize is the sizing hint used when a backfill run does
// not set batch_size explicitly.
const defaultBackfillBatchSize = 30

// Resolver computes the execution mode and configuration for a run.
// Pure function of the run context and "now"; no hidden state.
type Resolver struct {
	cal               *calendar.Calendar
	backfillAfterDays int
	defaultSchema     string
	logger            *logger.Logger
	now               func() time.Time
}

// NewResolver creates a Resolver. The backfillAfterDays threshold controls
// when an old logical date flips the run to backfill mode; it is distinct
// from the staleness threshold used by the strategy selector.
func NewResolver(cal *calendar.Calendar, backfillAfterDays int, defaultSchema string, log *logger.Logger) *Resolver {
	return &Resolver{
		cal:               cal,
		backfillAfterDays: backfillAfterDays,
		defaultSchema:     defaultSchema,
		logger:            log.WithField("module", "resolver"),
		now:               time.Now,
	}
}

// WithClock overrides the time source, used in tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve determines the execution mode and builds the ExecutionConfig.
//
// Precedence, first match wins:
//  1. operator conf sets mode=backfill
//  2. run type is manual or backfill/catch-up
//  3. logical date is older than the backfill threshold
//  4. default: incremental
func (r *Resolver) Resolve(rc RunContext) ExecutionConfig {
	now := r.now()
	today := truncateDay(now)
	overrides := ParseOverrides(rc.Conf)

	logicalDate := r.parseLogicalDate(rc.LogicalDate, today)

	mode := ModeIncremental
	reason := "default"

	switch {
	case overrides.Mode == string(ModeBackfill):
		mode = ModeBackfill
		reason = "explicit backfill configuration"

	case rc.RunType == RunTypeManual || rc.RunType == RunTypeBackfill:
		mode = ModeBackfill
		reason = fmt.Sprintf("run type: %s", rc.RunType)

	case logicalDate.Before(today.AddDate(0, 0, -r.backfillAfterDays)):
		mode = ModeBackfill
		reason = fmt.Sprintf("historical date: %s (older than %d days)",
			logicalDate.Format("2006-01-02"), r.backfillAfterDays)
	}

	cfg := ExecutionConfig{
		Mode:        mode,
		LogicalDate: logicalDate,
		RunType:     rc.RunType,
		Reason:      reason,
		Schema:      r.defaultSchema,
		Overrides:   overrides,
	}

	if overrides.Schema != "" {
		cfg.Schema = overrides.Schema
	}

	// Date resolution depends on the mode: backfill processes the logical
	// date itself, incremental always targets the most recent completed
	// trading session relative to now.
	if mode == ModeBackfill {
		cfg.TargetDate = logicalDate
		cfg.BatchSize = defaultBackfillBatchSize
		if overrides.BatchSize > 0 {
			cfg.BatchSize = overrides.BatchSize
		}
	} else {
		cfg.TargetDate = r.cal.PreviousTradingDay(today)
		cfg.BatchSize = 1
	}

	cfg.IsTradingDay = r.cal.IsTradingDay(cfg.TargetDate)

	r.logger.WithFields(map[string]interface{}{
		"mode":           string(cfg.Mode),
		"reason":         cfg.Reason,
		"target_date":    cfg.TargetDate.Format("2006-01-02"),
		"is_trading_day": cfg.IsTradingDay,
	}).Info("Execution mode resolved")

	return cfg
}

// parseLogicalDate parses the scheduler-provided date, falling back to
// today on a missing or malformed value. The fallback is logged, never an
// error.
func (r *Resolver) parseLogicalDate(raw string, today time.Time) time.Time {
	if raw == "" {
		r.logger.Warnf("No logical date in run context, using today: %s", today.Format("2006-01-02"))
		return today
	}

	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		r.logger.WithError(err).Warnf("Malformed logical date %q, using today", raw)
		return today
	}

	return d
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
