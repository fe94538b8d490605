package holidays

import (
	"fmt"
	"time"
)

// Feasts holds the movable feasts derived from Easter Sunday for one year.
type Feasts struct {
	CarnivalMonday  time.Time
	CarnivalTuesday time.Time
	AshWednesday    time.Time
	GoodFriday      time.Time
	EasterSunday    time.Time
	EasterMonday    time.Time
}

// ComputeEasterSunday returns Easter Sunday of the Gregorian calendar for year
// (Meeus/Jones/Butcher algorithm), at midnight in loc.
func ComputeEasterSunday(year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y := year
	a := y % 19
	b := y / 100
	c := y % 100
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

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

// MovableFeasts derives the Easter-relative holidays for year.
// Easter always falls between March 22 and April 25; anything else means the
// year was outside the algorithm's domain and no feasts are returned.
func MovableFeasts(year int, loc *time.Location) (Feasts, error) {
	if year < 1583 {
		return Feasts{}, fmt.Errorf("year %d predates the Gregorian calendar", year)
	}
	easter := ComputeEasterSunday(year, loc)
	if !inEasterWindow(easter) {
		return Feasts{}, fmt.Errorf("computed Easter %s for %d is out of range", easter.Format("2006-01-02"), year)
	}

	ash := easter.AddDate(0, 0, -46)
	return Feasts{
		CarnivalMonday:  ash.AddDate(0, 0, -2),
		CarnivalTuesday: ash.AddDate(0, 0, -1),
		AshWednesday:    ash,
		GoodFriday:      easter.AddDate(0, 0, -2),
		EasterSunday:    easter,
		EasterMonday:    easter.AddDate(0, 0, 1),
	}, nil
}

func inEasterWindow(t time.Time) bool {
	switch t.Month() {
	case time.March:
		return t.Day() >= 22
	case time.April:
		return t.Day() <= 25
	default:
		return false
	}
}
