package market

import (
	"time"
	_ "time/tzdata" // America/New_York must resolve on minimal images

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

var newYork = loadNewYork()

func loadNewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// SessionStatus returns the US equity session state at now.
//
// Sessions (America/New_York, trading days only):
//   - 04:00–09:30 pre-market
//   - 09:30–16:00 open
//   - 16:00–20:00 after-hours
//   - otherwise closed
func SessionStatus(now time.Time) models.MarketStatus {
	t := now.In(newYork)
	if !IsTradingDay(t) {
		return models.MarketClosed
	}
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		return models.MarketPreMarket
	case minutes >= 9*60+30 && minutes < 16*60:
		return models.MarketOpen
	case minutes >= 16*60 && minutes < 20*60:
		return models.MarketAfterHours
	default:
		return models.MarketClosed
	}
}

// IsTradingDay reports whether d (interpreted in its own location) is a NYSE trading day.
func IsTradingDay(d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, ok := nyseHolidays(d.Year())[truncateToDate(d).Format("2006-01-02")]
	return !ok
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// nyseHolidays returns the full-day closures of a year keyed by YYYY-MM-DD.
func nyseHolidays(year int) map[string]struct{} {
	days := []time.Time{
		nthWeekday(year, time.January, time.Monday, 3),   // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3),  // Washington's Birthday
		easterSunday(year).AddDate(0, 0, -2),             // Good Friday
		lastWeekday(year, time.May, time.Monday),         // Memorial Day
		observed(date(year, time.July, 4)),               // Independence Day
		nthWeekday(year, time.September, time.Monday, 1), // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(year, time.December, 25)),          // Christmas
	}
	// New Year's Day falling on a Saturday is not observed on the prior Friday.
	if ny := date(year, time.January, 1); ny.Weekday() != time.Saturday {
		days = append(days, observed(ny))
	}
	if year >= 2022 {
		days = append(days, observed(date(year, time.June, 19))) // Juneteenth
	}

	out := make(map[string]struct{}, len(days))
	for _, d := range days {
		out[d.Format("2006-01-02")] = struct{}{}
	}
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// observed shifts Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
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
	day := ((h + l - 7*m + 114) % 31) + 1

	return date(year, time.Month(month), day)
}
