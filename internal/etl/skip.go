package etl

import (
	"fmt"
	"time"

	"github.com/adamwal/gpwetl/internal/calendar"
)

// ShouldSkip decides whether the whole run is skipped, before any
// instrument-level work begins.
//
// Backfill runs skip weekends only: holiday-adjacent historical sessions
// are still fetched for complete coverage. Incremental runs strictly
// follow the trading calendar.
func ShouldSkip(cfg ExecutionConfig, cal *calendar.Calendar) (bool, string) {
	target := cfg.TargetDate
	dateStr := target.Format("2006-01-02")

	if cfg.Mode == ModeBackfill {
		if isWeekendDay(target) {
			return true, fmt.Sprintf("weekend date: %s", dateStr)
		}
		return false, fmt.Sprintf("backfill mode: processing %s", dateStr)
	}

	if !cal.IsTradingDay(target) {
		if name := cal.HolidayName(target); name != "" {
			return true, fmt.Sprintf("Polish holiday: %s (%s)", name, dateStr)
		}
		if isWeekendDay(target) {
			return true, fmt.Sprintf("weekend: %s", dateStr)
		}
		return true, fmt.Sprintf("non-trading day: %s", dateStr)
	}

	return false, fmt.Sprintf("trading day: proceeding with %s", dateStr)
}

func isWeekendDay(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
