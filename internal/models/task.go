package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
)

// RecurrencePattern describes how a recurring task repeats.
// DaysOfWeek is only meaningful for weekly patterns and DayOfMonth only for monthly ones.
type RecurrencePattern struct {
	Type       constants.RecurrenceType `json:"type"`
	Interval   int                      `json:"interval"`
	DaysOfWeek []time.Weekday           `json:"days_of_week,omitempty"`
	DayOfMonth int                      `json:"day_of_month,omitempty"`
}

type Task struct {
	ID                string               `json:"id"`
	EmployeeID        string               `json:"employee_id"`
	Description       string               `json:"description"`
	Status            constants.TaskStatus `json:"status"`
	IsTaskOfDay       bool                 `json:"is_task_of_day"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty"`
	IsRecurring       bool                 `json:"is_recurring"`
	Recurrence        *RecurrencePattern   `json:"recurrence_pattern,omitempty"`
	DueDate           *time.Time           `json:"due_date,omitempty"`            // civil date
	LastCompletedDate *time.Time           `json:"last_completed_date,omitempty"` // civil date
}

var (
	ErrMissingPattern    = errors.New("recurring task requires a recurrence pattern")
	ErrUnexpectedPattern = errors.New("non-recurring task must not carry a recurrence pattern")
	ErrEmptyDescription  = errors.New("task description cannot be empty")
)

// Normalize sorts and deduplicates the weekday set and drops fields that do not
// apply to the pattern's type.
func (p *RecurrencePattern) Normalize() {
	if p == nil {
		return
	}
	if p.Interval < 1 {
		p.Interval = 1
	}
	if p.Type != constants.RecurrenceWeekly {
		p.DaysOfWeek = nil
	} else if len(p.DaysOfWeek) > 0 {
		seen := make(map[time.Weekday]bool, len(p.DaysOfWeek))
		days := make([]time.Weekday, 0, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		p.DaysOfWeek = days
	}
	if p.Type != constants.RecurrenceMonthly {
		p.DayOfMonth = 0
	}
}

// Equal reports whether two patterns describe the same rule.
func (p *RecurrencePattern) Equal(o *RecurrencePattern) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Type != o.Type || p.Interval != o.Interval || p.DayOfMonth != o.DayOfMonth {
		return false
	}
	if len(p.DaysOfWeek) != len(o.DaysOfWeek) {
		return false
	}
	for i := range p.DaysOfWeek {
		if p.DaysOfWeek[i] != o.DaysOfWeek[i] {
			return false
		}
	}
	return true
}

// Validate checks the pattern's own fields.
func (p RecurrencePattern) Validate() error {
	switch p.Type {
	case constants.RecurrenceNone, constants.RecurrenceDaily, constants.RecurrenceWeekly, constants.RecurrenceMonthly:
	default:
		return fmt.Errorf("unknown recurrence type %q", p.Type)
	}
	if p.Interval < 1 {
		return fmt.Errorf("interval must be at least 1, got %d", p.Interval)
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("weekday %d out of range 0-6", d)
		}
	}
	if len(p.DaysOfWeek) > 0 && p.Type != constants.RecurrenceWeekly {
		return fmt.Errorf("days of week only apply to weekly recurrence")
	}
	if p.DayOfMonth != 0 {
		if p.Type != constants.RecurrenceMonthly {
			return fmt.Errorf("day of month only applies to monthly recurrence")
		}
		if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			return fmt.Errorf("day of month must be between 1 and 31, got %d", p.DayOfMonth)
		}
	}
	return nil
}

// Validate checks the task invariants that do not depend on other tasks.
func (t Task) Validate() error {
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.EmployeeID == "" {
		return errors.New("task must belong to an employee")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown task status %q", t.Status)
	}
	if t.IsRecurring && t.Recurrence == nil {
		return ErrMissingPattern
	}
	if !t.IsRecurring && t.Recurrence != nil {
		return ErrUnexpectedPattern
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return fmt.Errorf("invalid recurrence: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy so optimistic edits never alias confirmed state.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.LastCompletedDate != nil {
		v := *t.LastCompletedDate
		c.LastCompletedDate = &v
	}
	if t.Recurrence != nil {
		p := *t.Recurrence
		p.DaysOfWeek = append([]time.Weekday(nil), t.Recurrence.DaysOfWeek...)
		c.Recurrence = &p
	}
	return c
}

// civil truncates a timestamp to midnight of its calendar day in its own location.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
