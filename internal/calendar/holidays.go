package calendar

import "time"

type holiday struct {
	date time.Time
	name string
}

// polishHolidays returns the Polish public holidays for a year, matching
// the statutory list of days off work (Dni ustawowo wolne od pracy).
func polishHolidays(year int) []holiday {
	easter := easterSunday(year)

	hs := []holiday{
		{ymd(year, time.January, 1), "New Year's Day"},
		{easter, "Easter Sunday"},
		{easter.AddDate(0, 0, 1), "Easter Monday"},
		{ymd(year, time.May, 1), "Labour Day"},
		{ymd(year, time.May, 3), "Constitution Day"},
		{easter.AddDate(0, 0, 49), "Pentecost Sunday"},
		{easter.AddDate(0, 0, 60), "Corpus Christi"},
		{ymd(year, time.August, 15), "Assumption of Mary"},
		{ymd(year, time.November, 1), "All Saints' Day"},
		{ymd(year, time.November, 11), "Independence Day"},
		{ymd(year, time.December, 25), "Christmas Day"},
		{ymd(year, time.December, 26), "Second Day of Christmas"},
	}

	// Epiphany became a public holiday again in 2011
	if year >= 2011 {
		hs = append(hs, holiday{ymd(year, time.January, 6), "Epiphany"})
	}

	// Christmas Eve is a public holiday from 2025
	if year >= 2025 {
		hs = append(hs, holiday{ymd(year, time.December, 24), "Christmas Eve"})
	}

	return hs
}

// easterSunday computes Easter Sunday for a year using the anonymous
// Gregorian computus.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return ymd(year, time.Month(month), day)
}

func ymd(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
