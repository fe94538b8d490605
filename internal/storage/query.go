package storage

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/dtracker/internal/constants"
)

// TaskQuery filters tasks. Zero fields do not filter.
type TaskQuery struct {
	IDs           []string
	EmployeeIDs   []string
	Statuses      []constants.TaskStatus
	RecurringOnly bool
	// DueFrom and DueTo bound the due date, both inclusive.
	DueFrom *time.Time
	DueTo   *time.Time
	// CreatedFrom and CreatedTo bound the creation day, both inclusive.
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OrderBy     string
	Descending  bool
	Limit       uint64
}

// EventQuery filters calendar events. From and To are inclusive civil days.
type EventQuery struct {
	From         *time.Time
	To           *time.Time
	Year         int
	Types        []constants.EventType
	EmployeeID   string
	HolidaysOnly bool
}

var taskOrderColumns = map[string]string{
	"":            "created_at",
	"created":     "created_at",
	"created_at":  "created_at",
	"updated":     "updated_at",
	"updated_at":  "updated_at",
	"due":         "due_date",
	"due_date":    "due_date",
	"description": "description",
	"status":      "status",
}

// ValidTaskOrder reports whether name can be used as TaskQuery.OrderBy.
func ValidTaskOrder(name string) bool {
	_, ok := taskOrderColumns[name]
	return ok
}

func (q TaskQuery) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if len(q.IDs) > 0 {
		b = b.Where(sq.Eq{"id": q.IDs})
	}
	if len(q.EmployeeIDs) > 0 {
		b = b.Where(sq.Eq{"employee_id": q.EmployeeIDs})
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if q.RecurringOnly {
		b = b.Where(sq.Eq{"is_recurring": true})
	}
	if q.DueFrom != nil {
		b = b.Where(sq.GtOrEq{"due_date": FormatDate(*q.DueFrom)})
	}
	if q.DueTo != nil {
		b = b.Where(sq.LtOrEq{"due_date": FormatDate(*q.DueTo)})
	}
	if q.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": FormatTimestamp(startOfDay(*q.CreatedFrom))})
	}
	if q.CreatedTo != nil {
		b = b.Where(sq.Lt{"created_at": FormatTimestamp(startOfDay(*q.CreatedTo).AddDate(0, 0, 1))})
	}

	col, ok := taskOrderColumns[q.OrderBy]
	if !ok {
		col = "created_at"
	}
	dir := " ASC"
	if q.Descending {
		dir = " DESC"
	}
	b = b.OrderBy(col+dir, "id ASC")
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	return b
}

// apply renders the filter. An employee filter keeps that employee's events,
// unassigned events and holidays, the same rule the day view uses.
func (q EventQuery) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if q.From != nil {
		b = b.Where(sq.GtOrEq{"date": FormatTimestamp(startOfDay(*q.From))})
	}
	if q.To != nil {
		b = b.Where(sq.Lt{"date": FormatTimestamp(startOfDay(*q.To).AddDate(0, 0, 1))})
	}
	if q.Year != 0 {
		b = b.Where(sq.Eq{"year": q.Year})
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		b = b.Where(sq.Eq{"event_type": types})
	}
	if q.HolidaysOnly {
		b = b.Where(sq.Eq{"is_trinidad_holiday": true})
	}
	if q.EmployeeID != "" && q.EmployeeID != constants.EmployeeFilterAll {
		b = b.Where(sq.Or{
			sq.Eq{"employee_id": q.EmployeeID},
			sq.Eq{"employee_id": nil},
			sq.Eq{"event_type": string(constants.EventHoliday)},
		})
	}
	return b.OrderBy("date ASC", "id ASC")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
