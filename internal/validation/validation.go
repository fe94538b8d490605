package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictEmptyField          ConflictType = "empty_field"
	ConflictUnknownEmployee     ConflictType = "unknown_employee"
	ConflictInvalidStatus       ConflictType = "invalid_status"
	ConflictInvalidRecurrence   ConflictType = "invalid_recurrence"
	ConflictMultipleTaskOfDay   ConflictType = "multiple_task_of_day"
	ConflictTaskOfDayMismatch   ConflictType = "task_of_day_mismatch"
	ConflictDuplicateTask       ConflictType = "duplicate_task"
	ConflictInvalidEventType    ConflictType = "invalid_event_type"
	ConflictInvalidDateTime     ConflictType = "invalid_datetime"
	ConflictCompletedWithoutEnd ConflictType = "completed_without_timestamp"
)

// Conflict represents a detected problem in tasks or events
type Conflict struct {
	Type        ConflictType
	Field       string
	Description string
	Items       []string // Task/event descriptions involved
	TaskIDs     []string // IDs involved (for auto-fixing)
	EmployeeID  string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks tasks and events
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidatePattern checks a recurrence rule's own fields.
func (v *Validator) ValidatePattern(p *models.RecurrencePattern) []Conflict {
	if p == nil {
		return nil
	}
	var conflicts []Conflict
	add := func(field, format string, args ...interface{}) {
		conflicts = append(conflicts, Conflict{
			Type:        ConflictInvalidRecurrence,
			Field:       field,
			Description: fmt.Sprintf(format, args...),
		})
	}

	switch p.Type {
	case constants.RecurrenceNone, constants.RecurrenceDaily, constants.RecurrenceWeekly, constants.RecurrenceMonthly:
	default:
		add("type", "Unknown recurrence type %q", p.Type)
	}
	if p.Interval < 1 {
		add("interval", "Recurrence interval must be at least 1, got %d", p.Interval)
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			add("days_of_week", "Weekday %d is out of range 0-6", d)
		}
	}
	if len(p.DaysOfWeek) > 0 && p.Type != constants.RecurrenceWeekly {
		add("days_of_week", "Days of week only apply to weekly recurrence, not %s", p.Type)
	}
	if p.DayOfMonth != 0 {
		if p.Type != constants.RecurrenceMonthly {
			add("day_of_month", "Day of month only applies to monthly recurrence, not %s", p.Type)
		} else if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			add("day_of_month", "Day of month must be between 1 and 31, got %d", p.DayOfMonth)
		}
	}
	return conflicts
}

// ValidateTask checks a single task without looking at other tasks.
func (v *Validator) ValidateTask(t models.Task) []Conflict {
	var conflicts []Conflict
	add := func(typ ConflictType, field, format string, args ...interface{}) {
		conflicts = append(conflicts, Conflict{
			Type:        typ,
			Field:       field,
			Description: fmt.Sprintf(format, args...),
			Items:       []string{t.Description},
			TaskIDs:     []string{t.ID},
			EmployeeID:  t.EmployeeID,
		})
	}

	if strings.TrimSpace(t.Description) == "" {
		add(ConflictEmptyField, "description", "Task %s has an empty description", t.ID)
	}
	if t.EmployeeID == "" {
		add(ConflictEmptyField, "employee_id", "Task \"%s\" is not assigned to an employee", t.Description)
	}
	if !t.Status.Valid() {
		add(ConflictInvalidStatus, "status", "Task \"%s\" has unknown status %q", t.Description, t.Status)
	}
	if t.Status == constants.TaskCompleted && t.CompletedAt == nil {
		add(ConflictCompletedWithoutEnd, "completed_at", "Task \"%s\" is completed but has no completion time", t.Description)
	}
	if t.IsRecurring && t.Recurrence == nil {
		add(ConflictInvalidRecurrence, "recurrence", "Recurring task \"%s\" has no recurrence pattern", t.Description)
	}
	if !t.IsRecurring && t.Recurrence != nil {
		add(ConflictInvalidRecurrence, "recurrence", "Task \"%s\" is not recurring but carries a pattern", t.Description)
	}
	for _, c := range v.ValidatePattern(t.Recurrence) {
		c.Description = fmt.Sprintf("Task \"%s\": %s", t.Description, c.Description)
		c.Items = []string{t.Description}
		c.TaskIDs = []string{t.ID}
		c.EmployeeID = t.EmployeeID
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// ValidateTasks checks every task and the relations between tasks and employees.
func (v *Validator) ValidateTasks(tasks []models.Task, employees []models.Employee) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	known := make(map[string]models.Employee, len(employees))
	for _, e := range employees {
		known[e.ID] = e
	}

	byID := make(map[string]models.Task, len(tasks))
	focus := make(map[string][]string)
	duplicates := make(map[string][]string)
	for _, t := range tasks {
		byID[t.ID] = t
		result.Conflicts = append(result.Conflicts, v.ValidateTask(t)...)

		if t.EmployeeID != "" && employees != nil {
			if _, ok := known[t.EmployeeID]; !ok {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictUnknownEmployee,
					Field:       "employee_id",
					Description: fmt.Sprintf("Task \"%s\" belongs to unknown employee %s", t.Description, t.EmployeeID),
					Items:       []string{t.Description},
					TaskIDs:     []string{t.ID},
					EmployeeID:  t.EmployeeID,
				})
			}
		}
		if t.IsTaskOfDay {
			focus[t.EmployeeID] = append(focus[t.EmployeeID], t.ID)
		}
		if t.Status == constants.TaskActive && t.Description != "" {
			key := t.EmployeeID + "\x00" + strings.ToLower(strings.TrimSpace(t.Description))
			duplicates[key] = append(duplicates[key], t.ID)
		}
	}

	for _, employeeID := range sortedKeys(focus) {
		ids := focus[employeeID]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMultipleTaskOfDay,
				Field:       "is_task_of_day",
				Description: fmt.Sprintf("Employee %s has %d tasks of the day (IDs: %v)", employeeID, len(ids), ids),
				TaskIDs:     ids,
				EmployeeID:  employeeID,
			})
		}
	}

	for _, e := range employees {
		if e.TaskOfDayID == "" {
			continue
		}
		t, ok := byID[e.TaskOfDayID]
		if !ok || !t.IsTaskOfDay || t.EmployeeID != e.ID {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictTaskOfDayMismatch,
				Field:       "task_of_day_id",
				Description: fmt.Sprintf("Employee \"%s\" points at task %s which is not their task of the day", e.Name, e.TaskOfDayID),
				TaskIDs:     []string{e.TaskOfDayID},
				EmployeeID:  e.ID,
			})
		}
	}

	for _, key := range sortedKeys(duplicates) {
		ids := duplicates[key]
		if len(ids) > 1 {
			t := byID[ids[0]]
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateTask,
				Field:       "description",
				Description: fmt.Sprintf("Duplicate active task \"%s\" for employee %s (IDs: %v)", t.Description, t.EmployeeID, ids),
				Items:       []string{t.Description},
				TaskIDs:     ids,
				EmployeeID:  t.EmployeeID,
			})
		}
	}

	return result
}

// ValidateEvent checks a user-created event. Holidays are seeded, never
// entered, so a user event of type holiday is rejected.
func (v *Validator) ValidateEvent(e models.CalendarEvent) []Conflict {
	var conflicts []Conflict
	add := func(typ ConflictType, field, format string, args ...interface{}) {
		conflicts = append(conflicts, Conflict{
			Type:        typ,
			Field:       field,
			Description: fmt.Sprintf(format, args...),
			Items:       []string{e.Title},
			EmployeeID:  e.EmployeeID,
		})
	}

	if strings.TrimSpace(e.Title) == "" {
		add(ConflictEmptyField, "title", "Event on %s has an empty title", e.Date.Format(constants.DateFormat))
	}
	if e.Date.IsZero() {
		add(ConflictInvalidDateTime, "date", "Event \"%s\" has no date", e.Title)
	}
	switch {
	case e.ReadOnly():
		add(ConflictInvalidEventType, "event_type", "Event \"%s\": holidays cannot be created by hand", e.Title)
	case e.Type != constants.EventEvent && e.Type != constants.EventReminder:
		add(ConflictInvalidEventType, "event_type", "Event \"%s\" has unknown type %q", e.Title, e.Type)
	}
	return conflicts
}

// AutoFixTaskOfDay resolves multiple-task-of-day conflicts by keeping the most
// recently updated task and clearing the rest through setFunc, which must
// make taskID the employee's only task of the day.
func AutoFixTaskOfDay(conflicts []Conflict, tasks []models.Task, setFunc func(employeeID, taskID string) error) []FixAction {
	actions := []FixAction{}

	fixed := make(map[string]bool)
	for _, conflict := range conflicts {
		if conflict.Type != ConflictMultipleTaskOfDay && conflict.Type != ConflictTaskOfDayMismatch {
			continue
		}
		if fixed[conflict.EmployeeID] {
			continue
		}
		fixed[conflict.EmployeeID] = true

		var candidates []models.Task
		for _, t := range tasks {
			if t.IsTaskOfDay && t.EmployeeID == conflict.EmployeeID {
				candidates = append(candidates, t)
			}
		}
		// a stale pointer with no flagged task is cleared
		keep := ""
		if len(candidates) > 0 {
			sort.Slice(candidates, func(i, j int) bool {
				if !candidates[i].UpdatedAt.Equal(candidates[j].UpdatedAt) {
					return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
				}
				return candidates[i].ID < candidates[j].ID
			})
			keep = candidates[0].ID
		}

		if err := setFunc(conflict.EmployeeID, keep); err != nil {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to repair task of day for employee %s: %v", conflict.EmployeeID, err),
				SourceConflict: conflict,
			})
			continue
		}
		msg := fmt.Sprintf("Cleared task of day for employee %s", conflict.EmployeeID)
		if keep != "" {
			msg = fmt.Sprintf("Kept task %s as task of day for employee %s", keep, conflict.EmployeeID)
		}
		actions = append(actions, FixAction{Action: msg, SourceConflict: conflict})
	}

	return actions
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
