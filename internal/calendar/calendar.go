// Package calendar provides trading-day arithmetic for the Warsaw Stock
// Exchange: weekday rule, Polish public holidays and custom market closures.
package calendar

import "time"

// Calendar answers trading-day questions for a fixed year range.
// It is immutable after construction and safe for concurrent use.
type Calendar struct {
	fromYear int
	toYear   int
	holidays map[int64]string // unix day -> holiday name
	closures map[int64]string // unix day -> closure reason
}

// New builds a calendar covering [fromYear, toYear] inclusive. Optional
// closures mark dates the exchange was shut outside of public holidays.
func New(fromYear, toYear int, closures ...time.Time) *Calendar {
	c := &Calendar{
		fromYear: fromYear,
		toYear:   toYear,
		holidays: make(map[int64]string),
		closures: make(map[int64]string),
	}

	for year := fromYear; year <= toYear; year++ {
		for _, h := range polishHolidays(year) {
			c.holidays[dayKey(h.date)] = h.name
		}
	}

	for _, d := range closures {
		c.closures[dayKey(d)] = "Market closure"
	}

	return c
}

// IsTradingDay reports whether the exchange is open on the given date.
// A trading day is a weekday that is neither a public holiday nor a
// custom closure.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	if isWeekend(d) {
		return false
	}
	if _, ok := c.holidays[dayKey(d)]; ok {
		return false
	}
	if _, ok := c.closures[dayKey(d)]; ok {
		return false
	}
	return true
}

// HolidayName returns the holiday or closure name for a date, or "" if the
// date is not a holiday.
func (c *Calendar) HolidayName(d time.Time) string {
	if name, ok := c.holidays[dayKey(d)]; ok {
		return name
	}
	if name, ok := c.closures[dayKey(d)]; ok {
		return name
	}
	return ""
}

// PreviousTradingDay returns the nearest trading day strictly before d.
// Terminates by construction: weekends recur every 7 days and the holiday
// set is finite.
func (c *Calendar) PreviousTradingDay(d time.Time) time.Time {
	cur := d.AddDate(0, 0, -1)
	for !c.IsTradingDay(cur) {
		cur = cur.AddDate(0, 0, -1)
	}
	return cur
}

// NextTradingDay returns the nearest trading day strictly after d.
func (c *Calendar) NextTradingDay(d time.Time) time.Time {
	cur := d.AddDate(0, 0, 1)
	for !c.IsTradingDay(cur) {
		cur = cur.AddDate(0, 0, 1)
	}
	return cur
}

// TradingDaysInRange returns all trading days in [from, to] inclusive.
func (c *Calendar) TradingDaysInRange(from, to time.Time) []time.Time {
	var days []time.Time
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		if c.IsTradingDay(cur) {
			days = append(days, cur)
		}
	}
	return days
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// dayKey normalizes a date to a calendar-day key, ignoring time of day
// and zone.
func dayKey(d time.Time) int64 {
	y, m, day := d.Date()
	return int64(y)*10000 + int64(m)*100 + int64(day)
}
