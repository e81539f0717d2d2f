package etl

import (
	"io"
	"testing"
	"time"

	"github.com/adamwal/gpwetl/internal/calendar"
	"github.com/adamwal/gpwetl/pkg/logger"
)

func testClock(t *testing.T, date string) func() time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %s: %v", date, err)
	}
	return func() time.Time { return d }
}

func newTestResolver(t *testing.T, today string) *Resolver {
	t.Helper()
	cal := calendar.New(2020, 2030)
	log := logger.NewWriter(io.Discard, "error")
	return NewResolver(cal, 7, "prod_stock_data", log).WithClock(testClock(t, today))
}

func TestResolveDefaultIncremental(t *testing.T) {
	// Wednesday 2024-04-03; previous session is Tuesday 2024-04-02.
	r := newTestResolver(t, "2024-04-03")

	cfg := r.Resolve(RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled})

	if cfg.Mode != ModeIncremental {
		t.Fatalf("mode = %s, want incremental", cfg.Mode)
	}
	if cfg.Reason != "default" {
		t.Errorf("reason = %q, want default", cfg.Reason)
	}
	if got := cfg.TargetDate.Format("2006-01-02"); got != "2024-04-02" {
		t.Errorf("target date = %s, want 2024-04-02", got)
	}
	if cfg.BatchSize != 1 {
		t.Errorf("batch size = %d, want 1", cfg.BatchSize)
	}
	if !cfg.IsTradingDay {
		t.Error("previous trading day must be a trading day")
	}
	if cfg.Schema != "prod_stock_data" {
		t.Errorf("schema = %q, want prod_stock_data", cfg.Schema)
	}
}

func TestResolveExplicitBackfillConf(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")

	cfg := r.Resolve(RunContext{
		LogicalDate: "2024-04-02",
		RunType:     RunTypeScheduled,
		Conf:        map[string]interface{}{"mode": "backfill"},
	})

	if cfg.Mode != ModeBackfill {
		t.Fatalf("mode = %s, want backfill", cfg.Mode)
	}
	if cfg.Reason != "explicit backfill configuration" {
		t.Errorf("reason = %q", cfg.Reason)
	}
	if got := cfg.TargetDate.Format("2006-01-02"); got != "2024-04-02" {
		t.Errorf("backfill must target the logical date, got %s", got)
	}
	if cfg.BatchSize != defaultBackfillBatchSize {
		t.Errorf("batch size = %d, want %d", cfg.BatchSize, defaultBackfillBatchSize)
	}
}

func TestResolveRunTypePrecedence(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")

	for _, rt := range []RunType{RunTypeManual, RunTypeBackfill} {
		cfg := r.Resolve(RunContext{LogicalDate: "2024-04-02", RunType: rt})
		if cfg.Mode != ModeBackfill {
			t.Errorf("run type %s: mode = %s, want backfill", rt, cfg.Mode)
		}
		if cfg.Reason != "run type: "+string(rt) {
			t.Errorf("run type %s: reason = %q", rt, cfg.Reason)
		}
	}
}

func TestResolveOldLogicalDate(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")

	tests := []struct {
		logical string
		want    Mode
	}{
		{"2024-03-20", ModeBackfill},    // 14 days back
		{"2024-03-26", ModeBackfill},    // 8 days back
		{"2024-03-27", ModeIncremental}, // exactly 7 days back, not older
		{"2024-04-03", ModeIncremental},
	}

	for _, tt := range tests {
		cfg := r.Resolve(RunContext{LogicalDate: tt.logical, RunType: RunTypeScheduled})
		if cfg.Mode != tt.want {
			t.Errorf("logical %s: mode = %s, want %s", tt.logical, cfg.Mode, tt.want)
		}
	}
}

func TestResolveMalformedLogicalDate(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")

	for _, raw := range []string{"", "not-a-date", "03/04/2024"} {
		cfg := r.Resolve(RunContext{LogicalDate: raw, RunType: RunTypeScheduled})
		if cfg.Mode != ModeIncremental {
			t.Errorf("logical %q: mode = %s, want incremental fallback", raw, cfg.Mode)
		}
		if got := cfg.LogicalDate.Format("2006-01-02"); got != "2024-04-03" {
			t.Errorf("logical %q: fell back to %s, want today", raw, got)
		}
	}
}

func TestResolveOverrides(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")

	cfg := r.Resolve(RunContext{
		LogicalDate: "2024-04-02",
		RunType:     RunTypeManual,
		Conf: map[string]interface{}{
			"schema":     "test_stock_data",
			"batch_size": float64(5), // JSON numbers decode as float64
		},
	})

	if cfg.Schema != "test_stock_data" {
		t.Errorf("schema = %q, want test_stock_data", cfg.Schema)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("batch size = %d, want 5", cfg.BatchSize)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := newTestResolver(t, "2024-04-03")
	rc := RunContext{LogicalDate: "2024-03-15", RunType: RunTypeScheduled}

	first := r.Resolve(rc)
	second := r.Resolve(rc)

	if first.Mode != second.Mode || first.Reason != second.Reason ||
		!first.TargetDate.Equal(second.TargetDate) || first.BatchSize != second.BatchSize {
		t.Errorf("repeated resolution diverged: %+v vs %+v", first, second)
	}
}
