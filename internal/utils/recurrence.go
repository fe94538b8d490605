package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

// NextOccurrence computes the next date a recurring task is due.
//
// The base date is lastCompleted when present, otherwise reference (the task's
// current due date). The result is a civil date in the base date's location.
// It returns nil when the pattern or the base date is missing, or when the
// pattern does not repeat. The function is pure.
func NextOccurrence(p *models.RecurrencePattern, reference, lastCompleted *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	var base time.Time
	switch {
	case lastCompleted != nil:
		base = DateOf(*lastCompleted)
	case reference != nil:
		base = DateOf(*reference)
	default:
		return nil
	}

	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch p.Type {
	case constants.RecurrenceDaily:
		next = base.AddDate(0, 0, interval)
	case constants.RecurrenceWeekly:
		next = nextWeekly(base, interval, p.DaysOfWeek)
	case constants.RecurrenceMonthly:
		next = nextMonthly(base, interval, p.DayOfMonth)
	default:
		return nil
	}
	return &next
}

// nextWeekly jumps interval weeks ahead, then snaps to the next configured
// weekday after the landing day. When the landing day is past every configured
// weekday, it wraps to the first configured weekday of the following week.
func nextWeekly(base time.Time, interval int, days []time.Weekday) time.Time {
	tentative := base.AddDate(0, 0, interval*7)
	if len(days) == 0 {
		return tentative
	}

	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	current := int(tentative.Weekday())
	for _, d := range sorted {
		if int(d) > current {
			return tentative.AddDate(0, 0, int(d)-current)
		}
	}
	return tentative.AddDate(0, 0, (7-current)+int(sorted[0]))
}

// nextMonthly advances the month by interval and clamps the day to the target
// month's length (day 31 in February lands on the 28th or 29th).
func nextMonthly(base time.Time, interval, dayOfMonth int) time.Time {
	// normalize through the first of the month so AddDate never overflows
	first := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, base.Location())
	target := first.AddDate(0, interval, 0)

	day := base.Day()
	if dayOfMonth > 0 {
		day = dayOfMonth
	}
	if last := DaysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, base.Location())
}

// NextOccurrenceAfter rolls the rule forward until the result is strictly
// after the given day. Overdue tasks therefore converge in a single call
// instead of advancing one step per refresh. maxSteps bounds the walk.
func NextOccurrenceAfter(p *models.RecurrencePattern, reference, lastCompleted *time.Time, after time.Time, maxSteps int) *time.Time {
	next := NextOccurrence(p, reference, lastCompleted)
	after = DateOf(after)
	for i := 0; next != nil && !next.After(after) && i < maxSteps; i++ {
		next = NextOccurrence(p, next, nil)
	}
	return next
}

// FirstOccurrence returns the earliest date strictly after the given day that
// the rule allows, for a series with no due date or completion to count from.
// Weekdays and day of month pick the nearest match; without them the rule
// steps a full interval like NextOccurrence.
func FirstOccurrence(p *models.RecurrencePattern, after time.Time) *time.Time {
	if p == nil {
		return nil
	}
	base := DateOf(after)
	switch {
	case p.Type == constants.RecurrenceDaily:
		next := base.AddDate(0, 0, 1)
		return &next
	case p.Type == constants.RecurrenceWeekly && len(p.DaysOfWeek) > 0:
		for i := 1; i <= 7; i++ {
			next := base.AddDate(0, 0, i)
			for _, d := range p.DaysOfWeek {
				if next.Weekday() == d {
					return &next
				}
			}
		}
		return nil
	case p.Type == constants.RecurrenceMonthly && p.DayOfMonth > 0:
		day := min(p.DayOfMonth, DaysIn(base.Year(), base.Month()))
		if day > base.Day() {
			next := time.Date(base.Year(), base.Month(), day, 0, 0, 0, 0, base.Location())
			return &next
		}
		return NextOccurrence(p, &base, nil)
	}
	return NextOccurrence(p, &base, nil)
}

// IsDueForRefresh reports whether the task's stored due date is stale: it has
// no due date (never set, or dropped by a completion or a rule change) or the
// due date is today or earlier. A future due date is left alone, including
// one set explicitly. Completed and non-recurring tasks are never stale.
func IsDueForRefresh(task models.Task, today time.Time) bool {
	if !task.IsRecurring || task.Recurrence == nil {
		return false
	}
	if task.Status == constants.TaskCompleted {
		return false
	}
	if task.DueDate == nil {
		return true
	}
	return !DateOf(*task.DueDate).After(DateOf(today))
}

// DescribeRecurrence formats a recurrence rule into a human-readable string
func DescribeRecurrence(p *models.RecurrencePattern) string {
	if p == nil || p.Type == constants.RecurrenceNone || p.Type == "" {
		return ""
	}
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	unit := map[constants.RecurrenceType]string{
		constants.RecurrenceDaily:   "day",
		constants.RecurrenceWeekly:  "week",
		constants.RecurrenceMonthly: "month",
	}[p.Type]
	if unit == "" {
		return "unknown"
	}

	var s string
	if interval == 1 {
		s = "every " + unit
	} else {
		s = fmt.Sprintf("every %d %ss", interval, unit)
	}

	switch {
	case p.Type == constants.RecurrenceWeekly && len(p.DaysOfWeek) > 0:
		days := make([]string, 0, len(p.DaysOfWeek))
		for _, wd := range p.DaysOfWeek {
			days = append(days, wd.String()[:3])
		}
		s += " on " + strings.Join(days, ", ")
	case p.Type == constants.RecurrenceMonthly && p.DayOfMonth > 0:
		s += fmt.Sprintf(" on day %d", p.DayOfMonth)
	}
	return s
}
