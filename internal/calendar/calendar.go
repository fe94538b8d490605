// Package calendar aggregates calendar events into days and month grids.
package calendar

import (
	"sort"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

// Day is one cell of a month grid.
type Day struct {
	Date   time.Time
	Events []models.CalendarEvent
}

// Month is a month laid out in weeks starting on Sunday. Leading is the
// number of blank cells before the first day.
type Month struct {
	Year    int
	Month   time.Month
	Leading int
	Days    []Day
}

// Matches reports whether e is visible under employeeFilter: the filter is
// empty or "all", the event is unassigned, it is a holiday, or it belongs to
// the filtered employee.
func Matches(e models.CalendarEvent, employeeFilter string) bool {
	switch {
	case employeeFilter == "" || employeeFilter == constants.EmployeeFilterAll:
		return true
	case e.EmployeeID == "":
		return true
	case e.Type == constants.EventHoliday || e.IsTrinidadHoliday:
		return true
	default:
		return e.EmployeeID == employeeFilter
	}
}

// EventsForDay returns the events on the given civil day that are visible
// under employeeFilter, sorted by time. Events are compared by the calendar
// day of their own timestamp, so time of day never moves an event to another
// day. The input is not modified.
func EventsForDay(events []models.CalendarEvent, year int, month time.Month, day int, employeeFilter string) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range events {
		y, m, d := e.Date.Date()
		if y != year || m != month || d != day {
			continue
		}
		if Matches(e, employeeFilter) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MonthGrid lays out a month. Each day's events come from EventsForDay so
// the grid and the day detail always agree.
func MonthGrid(events []models.CalendarEvent, year int, month time.Month, employeeFilter string, loc *time.Location) Month {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()

	grid := Month{
		Year:    year,
		Month:   month,
		Leading: int(first.Weekday()),
		Days:    make([]Day, 0, days),
	}
	for d := 1; d <= days; d++ {
		grid.Days = append(grid.Days, Day{
			Date:   time.Date(year, month, d, 0, 0, 0, 0, loc),
			Events: EventsForDay(events, year, month, d, employeeFilter),
		})
	}
	return grid
}

// Weeks splits the grid into rows of seven cells; blank cells are nil.
func (m Month) Weeks() [][]*Day {
	var weeks [][]*Day
	week := make([]*Day, m.Leading, 7)
	for i := range m.Days {
		week = append(week, &m.Days[i])
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]*Day, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, nil)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// Shift returns the year and month n months away.
func Shift(year int, month time.Month, n int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return t.Year(), t.Month()
}
