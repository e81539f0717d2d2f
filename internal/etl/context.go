// Package etl implements the execution-mode resolution and per-instrument
// extraction-strategy engine for the daily GPW price pipeline.
package etl

import (
	"time"
)

// Mode is the whole-run execution mode.
type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeBackfill    Mode = "backfill"
)

// RunType tags how a run was triggered.
type RunType string

const (
	RunTypeScheduled RunType = "scheduled"
	RunTypeManual    RunType = "manual"
	RunTypeBackfill  RunType = "backfill"
)

// RunContext is the untyped boundary handed over by the scheduler: a
// logical date string, a trigger tag and a free-form operator conf map.
// It is parsed into typed structs at the edge and never passed around raw.
type RunContext struct {
	LogicalDate string // YYYY-MM-DD, may be empty
	RunType     RunType
	Conf        map[string]interface{}
}

// Overrides is the typed view of the operator-supplied conf map. Unknown
// keys are ignored, recognised keys are validated permissively.
type Overrides struct {
	Mode             string            // "backfill" forces backfill mode
	ExtractionMode   string            // smart | full_backfill | historical | incremental
	Instruments      map[string]string // symbol -> historical | incremental
	Schema           string
	BatchSize        int
	EnableValidation *bool
}

// ParseOverrides extracts the recognised operator keys from a conf map.
func ParseOverrides(conf map[string]interface{}) Overrides {
	var o Overrides
	if conf == nil {
		return o
	}

	if v, ok := conf["mode"].(string); ok {
		o.Mode = v
	}
	if v, ok := conf["extraction_mode"].(string); ok {
		o.ExtractionMode = v
	}
	if v, ok := conf["schema"].(string); ok {
		o.Schema = v
	}
	if v, ok := conf["enable_validation"].(bool); ok {
		o.EnableValidation = &v
	}

	switch v := conf["batch_size"].(type) {
	case int:
		o.BatchSize = v
	case float64: // conf maps decoded from JSON carry numbers as float64
		o.BatchSize = int(v)
	}

	if raw, ok := conf["instruments"]; ok {
		o.Instruments = parseInstrumentMap(raw)
	}

	return o
}

func parseInstrumentMap(raw interface{}) map[string]string {
	out := make(map[string]string)

	switch m := raw.(type) {
	case map[string]string:
		for sym, mode := range m {
			out[sym] = mode
		}
	case map[string]interface{}:
		for sym, v := range m {
			if mode, ok := v.(string); ok {
				out[sym] = mode
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// ExecutionConfig is the fully-resolved configuration of one run, produced
// once by the Resolver and read-only afterwards.
type ExecutionConfig struct {
	Mode         Mode
	TargetDate   time.Time
	LogicalDate  time.Time
	RunType      RunType
	Reason       string
	IsTradingDay bool
	BatchSize    int
	Schema       string
	Overrides    Overrides
}
