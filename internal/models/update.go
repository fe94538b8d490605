package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
)

// TaskUpdate is a single, typed mutation of a task. Each kind of change has
// its own type so stores never receive a loose bag of optional fields.
type TaskUpdate interface {
	// Apply returns the task with the change applied. It never mutates the input.
	Apply(task Task, now time.Time) (Task, error)
	// Kind names the mutation for logging.
	Kind() string
}

// StatusChange moves a task between active, completed and deferred.
// Completing a recurring task finishes the current instance only: the task
// stays active, its due date is dropped and LastCompletedDate records the
// day the next due date is derived from.
type StatusChange struct {
	Status constants.TaskStatus
	At     time.Time
}

func (c StatusChange) Kind() string { return "status" }

func (c StatusChange) Apply(task Task, now time.Time) (Task, error) {
	if !c.Status.Valid() {
		return task, fmt.Errorf("unknown task status %q", c.Status)
	}
	at := c.At
	if at.IsZero() {
		at = now
	}
	t := task.Clone()
	switch c.Status {
	case constants.TaskCompleted:
		if t.IsRecurring && t.Recurrence != nil {
			day := civil(at)
			t.LastCompletedDate = &day
			t.DueDate = nil
			t.Status = constants.TaskActive
			t.CompletedAt = nil
			break
		}
		t.Status = constants.TaskCompleted
		t.CompletedAt = &at
	case constants.TaskActive:
		t.Status = constants.TaskActive
		t.CompletedAt = nil
	case constants.TaskDeferred:
		t.Status = constants.TaskDeferred
	}
	return t, nil
}

// RecurrenceChange replaces the task's recurrence rule. A nil pattern turns
// recurrence off. Either way a due date derived from the old rule is dropped.
type RecurrenceChange struct {
	Pattern *RecurrencePattern
}

func (c RecurrenceChange) Kind() string { return "recurrence" }

func (c RecurrenceChange) Apply(task Task, now time.Time) (Task, error) {
	t := task.Clone()
	if c.Pattern == nil || c.Pattern.Type == constants.RecurrenceNone {
		t.IsRecurring = false
		t.Recurrence = nil
		t.DueDate = nil
		t.LastCompletedDate = nil
		return t, nil
	}
	p := *c.Pattern
	p.DaysOfWeek = append([]time.Weekday(nil), c.Pattern.DaysOfWeek...)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return task, err
	}
	if !p.Equal(task.Recurrence) {
		t.DueDate = nil
	}
	t.IsRecurring = true
	t.Recurrence = &p
	return t, nil
}

// AssignmentChange moves a task to another employee.
type AssignmentChange struct {
	EmployeeID string
}

func (c AssignmentChange) Kind() string { return "assignment" }

func (c AssignmentChange) Apply(task Task, now time.Time) (Task, error) {
	if c.EmployeeID == "" {
		return task, fmt.Errorf("employee id cannot be empty")
	}
	t := task.Clone()
	if t.EmployeeID != c.EmployeeID {
		// the task-of-day flag belongs to the previous owner
		t.IsTaskOfDay = false
	}
	t.EmployeeID = c.EmployeeID
	return t, nil
}

// DescriptionChange rewrites the task text.
type DescriptionChange struct {
	Description string
}

func (c DescriptionChange) Kind() string { return "description" }

func (c DescriptionChange) Apply(task Task, now time.Time) (Task, error) {
	if c.Description == "" {
		return task, ErrEmptyDescription
	}
	t := task.Clone()
	t.Description = c.Description
	return t, nil
}

// DueDateChange sets (or clears) the due date. The refresh pass writes its
// computed dates through this intent; an explicit date on a recurring task
// stands until it is today or earlier.
type DueDateChange struct {
	DueDate *time.Time
}

func (c DueDateChange) Kind() string { return "due_date" }

func (c DueDateChange) Apply(task Task, now time.Time) (Task, error) {
	t := task.Clone()
	if c.DueDate == nil {
		t.DueDate = nil
		return t, nil
	}
	d := civil(*c.DueDate)
	t.DueDate = &d
	return t, nil
}

// ApplyUpdate applies u and stamps UpdatedAt, keeping it monotonic.
func ApplyUpdate(task Task, u TaskUpdate, now time.Time) (Task, error) {
	t, err := u.Apply(task, now)
	if err != nil {
		return task, err
	}
	if now.After(task.UpdatedAt) {
		t.UpdatedAt = now
	}
	if err := t.Validate(); err != nil {
		return task, err
	}
	return t, nil
}
