package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

var now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func countType(result ValidationResult, typ ConflictType) int {
	n := 0
	for _, c := range result.Conflicts {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func validTask(id, employee, desc string) models.Task {
	return models.Task{ID: id, EmployeeID: employee, Description: desc, Status: constants.TaskActive, CreatedAt: now, UpdatedAt: now}
}

func TestValidateTasks_Clean(t *testing.T) {
	validator := New()
	employees := []models.Employee{{ID: "e1", Name: "Alice", TaskOfDayID: "t1"}}
	t1 := validTask("t1", "e1", "Inspect site")
	t1.IsTaskOfDay = true
	t2 := validTask("t2", "e1", "File report")
	t2.IsRecurring = true
	t2.Recurrence = &models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday}}

	result := validator.ValidateTasks([]models.Task{t1, t2}, employees)
	if result.HasConflicts() {
		t.Errorf("Expected no conflicts, got: %s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("Unexpected report: %s", result.FormatReport())
	}
}

func TestValidateTask_Fields(t *testing.T) {
	validator := New()

	tests := []struct {
		name string
		task models.Task
		want ConflictType
	}{
		{"empty description", validTask("1", "e1", "  "), ConflictEmptyField},
		{"no employee", validTask("1", "", "x"), ConflictEmptyField},
		{"bad status", func() models.Task { t := validTask("1", "e1", "x"); t.Status = "paused"; return t }(), ConflictInvalidStatus},
		{"completed without time", func() models.Task { t := validTask("1", "e1", "x"); t.Status = constants.TaskCompleted; return t }(), ConflictCompletedWithoutEnd},
		{"recurring without pattern", func() models.Task { t := validTask("1", "e1", "x"); t.IsRecurring = true; return t }(), ConflictInvalidRecurrence},
		{"pattern without recurring", func() models.Task {
			t := validTask("1", "e1", "x")
			t.Recurrence = &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1}
			return t
		}(), ConflictInvalidRecurrence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := validator.ValidateTask(tt.task)
			if len(conflicts) != 1 {
				t.Fatalf("Expected 1 conflict, got %d: %+v", len(conflicts), conflicts)
			}
			if conflicts[0].Type != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, conflicts[0].Type)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	validator := New()

	tests := []struct {
		name    string
		pattern models.RecurrencePattern
		field   string
	}{
		{"zero interval", models.RecurrencePattern{Type: constants.RecurrenceDaily}, "interval"},
		{"unknown type", models.RecurrencePattern{Type: "yearly", Interval: 1}, "type"},
		{"weekday out of range", models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1, DaysOfWeek: []time.Weekday{7}}, "days_of_week"},
		{"weekdays on monthly", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DaysOfWeek: []time.Weekday{1}}, "days_of_week"},
		{"day of month on daily", models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1, DayOfMonth: 3}, "day_of_month"},
		{"day of month 32", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 32}, "day_of_month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := validator.ValidatePattern(&tt.pattern)
			if len(conflicts) != 1 {
				t.Fatalf("Expected 1 conflict, got %d: %+v", len(conflicts), conflicts)
			}
			if conflicts[0].Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, conflicts[0].Field)
			}
		})
	}

	if conflicts := validator.ValidatePattern(nil); conflicts != nil {
		t.Errorf("Expected nil pattern to pass, got %+v", conflicts)
	}
	ok := models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 2, DayOfMonth: 31}
	if conflicts := validator.ValidatePattern(&ok); len(conflicts) != 0 {
		t.Errorf("Expected valid pattern, got %+v", conflicts)
	}
}

func TestValidateTasks_MultipleTaskOfDay(t *testing.T) {
	validator := New()
	employees := []models.Employee{{ID: "e1", Name: "Alice", TaskOfDayID: "t1"}}
	t1 := validTask("t1", "e1", "A")
	t1.IsTaskOfDay = true
	t2 := validTask("t2", "e1", "B")
	t2.IsTaskOfDay = true

	result := validator.ValidateTasks([]models.Task{t1, t2}, employees)
	if countType(result, ConflictMultipleTaskOfDay) != 1 {
		t.Errorf("Expected a multiple task of day conflict, got: %s", result.FormatReport())
	}
}

func TestValidateTasks_StalePointer(t *testing.T) {
	validator := New()
	employees := []models.Employee{{ID: "e1", Name: "Alice", TaskOfDayID: "missing"}}

	result := validator.ValidateTasks([]models.Task{validTask("t1", "e1", "A")}, employees)
	if countType(result, ConflictTaskOfDayMismatch) != 1 {
		t.Errorf("Expected a task of day mismatch, got: %s", result.FormatReport())
	}
}

func TestValidateTasks_UnknownEmployeeAndDuplicates(t *testing.T) {
	validator := New()
	employees := []models.Employee{{ID: "e1", Name: "Alice"}}
	tasks := []models.Task{
		validTask("t1", "e1", "Order parts"),
		validTask("t2", "e1", "order parts "),
		validTask("t3", "e2", "Order parts"),
	}

	result := validator.ValidateTasks(tasks, employees)
	if countType(result, ConflictUnknownEmployee) != 1 {
		t.Errorf("Expected 1 unknown employee conflict, got: %s", result.FormatReport())
	}
	if countType(result, ConflictDuplicateTask) != 1 {
		t.Errorf("Expected 1 duplicate conflict, got: %s", result.FormatReport())
	}
	if !strings.Contains(result.FormatReport(), "Duplicate active task") {
		t.Errorf("Report missing duplicate line: %s", result.FormatReport())
	}
}

func TestValidateTasks_NilEmployeesSkipsOwnership(t *testing.T) {
	validator := New()
	result := validator.ValidateTasks([]models.Task{validTask("t1", "e9", "A")}, nil)
	if result.HasConflicts() {
		t.Errorf("Expected no conflicts without an employee list, got: %s", result.FormatReport())
	}
}

func TestValidateEvent(t *testing.T) {
	validator := New()

	tests := []struct {
		name  string
		event models.CalendarEvent
		want  []ConflictType
	}{
		{"valid", models.CalendarEvent{Title: "Standup", Date: now, Type: constants.EventEvent}, nil},
		{"reminder", models.CalendarEvent{Title: "Renew permit", Date: now, Type: constants.EventReminder}, nil},
		{"empty title", models.CalendarEvent{Date: now, Type: constants.EventEvent}, []ConflictType{ConflictEmptyField}},
		{"no date", models.CalendarEvent{Title: "x", Type: constants.EventEvent}, []ConflictType{ConflictInvalidDateTime}},
		{"holiday", models.CalendarEvent{Title: "x", Date: now, Type: constants.EventHoliday}, []ConflictType{ConflictInvalidEventType}},
		{"unknown type", models.CalendarEvent{Title: "x", Date: now, Type: "meeting"}, []ConflictType{ConflictInvalidEventType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := validator.ValidateEvent(tt.event)
			if len(conflicts) != len(tt.want) {
				t.Fatalf("Expected %d conflicts, got %+v", len(tt.want), conflicts)
			}
			for i, c := range conflicts {
				if c.Type != tt.want[i] {
					t.Errorf("Expected %s, got %s", tt.want[i], c.Type)
				}
			}
		})
	}
}

func TestAutoFixTaskOfDay(t *testing.T) {
	validator := New()
	employees := []models.Employee{
		{ID: "e1", Name: "Alice", TaskOfDayID: "t1"},
		{ID: "e2", Name: "Bob", TaskOfDayID: "gone"},
	}
	older := validTask("t1", "e1", "A")
	older.IsTaskOfDay = true
	newer := validTask("t2", "e1", "B")
	newer.IsTaskOfDay = true
	newer.UpdatedAt = now.Add(time.Hour)
	tasks := []models.Task{older, newer, validTask("t3", "e2", "C")}

	result := validator.ValidateTasks(tasks, employees)

	calls := map[string]string{}
	actions := AutoFixTaskOfDay(result.Conflicts, tasks, func(employeeID, taskID string) error {
		calls[employeeID] = taskID
		return nil
	})

	if len(actions) != 2 {
		t.Fatalf("Expected 2 fix actions, got %d: %+v", len(actions), actions)
	}
	if calls["e1"] != "t2" {
		t.Errorf("Expected the most recently updated task to be kept, got %q", calls["e1"])
	}
	if got, ok := calls["e2"]; !ok || got != "" {
		t.Errorf("Expected the stale pointer to be cleared, got %q (called: %v)", got, ok)
	}
}

func TestAutoFixTaskOfDay_ReportsFailures(t *testing.T) {
	conflicts := []Conflict{{Type: ConflictMultipleTaskOfDay, EmployeeID: "e1", TaskIDs: []string{"t1", "t2"}}}
	actions := AutoFixTaskOfDay(conflicts, nil, func(string, string) error {
		return errors.New("locked")
	})
	if len(actions) != 1 || !strings.Contains(actions[0].Action, "Failed") {
		t.Errorf("Expected a failure action, got %+v", actions)
	}
}
