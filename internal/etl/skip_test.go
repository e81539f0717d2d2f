package etl

import (
	"strings"
	"testing"
	"time"

	"github.com/adamwal/gpwetl/internal/calendar"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %s: %v", s, err)
	}
	return d
}

func TestShouldSkip(t *testing.T) {
	cal := calendar.New(2020, 2030)

	tests := []struct {
		name       string
		mode       Mode
		target     string
		wantSkip   bool
		wantReason string
	}{
		{
			name:       "incremental trading day proceeds",
			mode:       ModeIncremental,
			target:     "2024-04-02",
			wantSkip:   false,
			wantReason: "trading day",
		},
		{
			name:       "incremental weekend skips",
			mode:       ModeIncremental,
			target:     "2024-04-06",
			wantSkip:   true,
			wantReason: "weekend",
		},
		{
			name:       "incremental holiday names the holiday",
			mode:       ModeIncremental,
			target:     "2024-04-01", // Easter Monday
			wantSkip:   true,
			wantReason: "Polish holiday: Easter Monday",
		},
		{
			name:       "backfill weekend skips",
			mode:       ModeBackfill,
			target:     "2024-04-06",
			wantSkip:   true,
			wantReason: "weekend date",
		},
		{
			name:       "backfill weekday holiday still proceeds",
			mode:       ModeBackfill,
			target:     "2024-04-01",
			wantSkip:   false,
			wantReason: "backfill mode",
		},
		{
			name:       "backfill trading day proceeds",
			mode:       ModeBackfill,
			target:     "2024-04-02",
			wantSkip:   false,
			wantReason: "backfill mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ExecutionConfig{Mode: tt.mode, TargetDate: date(t, tt.target)}

			skip, reason := ShouldSkip(cfg, cal)
			if skip != tt.wantSkip {
				t.Fatalf("skip = %v, want %v (reason %q)", skip, tt.wantSkip, reason)
			}
			if !strings.HasPrefix(reason, tt.wantReason) {
				t.Errorf("reason = %q, want prefix %q", reason, tt.wantReason)
			}
		})
	}
}

func TestShouldSkipCustomClosure(t *testing.T) {
	closure := date(t, "2024-04-02")
	cal := calendar.New(2020, 2030, closure)

	skip, reason := ShouldSkip(ExecutionConfig{Mode: ModeIncremental, TargetDate: closure}, cal)
	if !skip {
		t.Fatalf("custom closure must skip, got proceed (%q)", reason)
	}
	if !strings.Contains(reason, "Market closure") {
		t.Errorf("reason = %q, want closure name", reason)
	}
}
