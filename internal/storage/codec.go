package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
)

// timestampLayout is fixed-width UTC so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

type employeeRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Status      string         `db:"status"`
	LastUpdated string         `db:"last_updated"`
	TaskOfDayID sql.NullString `db:"task_of_day_id"`
}

type taskRow struct {
	ID                string         `db:"id"`
	EmployeeID        string         `db:"employee_id"`
	Description       string         `db:"description"`
	Status            string         `db:"status"`
	IsTaskOfDay       bool           `db:"is_task_of_day"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
	CompletedAt       sql.NullString `db:"completed_at"`
	IsRecurring       bool           `db:"is_recurring"`
	Recurrence        sql.NullString `db:"recurrence"`
	DueDate           sql.NullString `db:"due_date"`
	LastCompletedDate sql.NullString `db:"last_completed_date"`
}

type eventRow struct {
	ID                string         `db:"id"`
	Title             string         `db:"title"`
	Date              string         `db:"date"`
	EventType         string         `db:"event_type"`
	EmployeeID        sql.NullString `db:"employee_id"`
	IsTrinidadHoliday bool           `db:"is_trinidad_holiday"`
	Year              int            `db:"year"`
	Color             sql.NullString `db:"color"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
}

var (
	employeeColumns = []string{"id", "name", "status", "last_updated", "task_of_day_id"}
	taskColumns     = []string{
		"id", "employee_id", "description", "status", "is_task_of_day", "created_at", "updated_at",
		"completed_at", "is_recurring", "recurrence", "due_date", "last_completed_date",
	}
	eventColumns = []string{
		"id", "title", "date", "event_type", "employee_id", "is_trinidad_holiday", "year", "color",
		"created_at", "updated_at",
	}
)

// FormatTimestamp renders t as the ISO-8601 string stored in timestamp columns.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a stored ISO-8601 timestamp into loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", apperrors.ErrMalformed, s, err)
	}
	return t.In(loc), nil
}

// FormatDate renders the civil date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDate parses a stored YYYY-MM-DD value as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", apperrors.ErrMalformed, s, err)
	}
	return t, nil
}

// EncodePattern serializes a recurrence pattern for the recurrence column.
func EncodePattern(p *models.RecurrencePattern) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode recurrence: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// DecodePattern parses the recurrence column. Empty input yields nil.
func DecodePattern(raw string) (*models.RecurrencePattern, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var p models.RecurrencePattern
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: recurrence: %v", apperrors.ErrMalformed, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: recurrence: %v", apperrors.ErrMalformed, err)
	}
	p.Normalize()
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTimestamp(*t), Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatDate(*t), Valid: true}
}

// optionalTimestamp decodes a nullable timestamp, logging and dropping bad values.
func optionalTimestamp(v sql.NullString, loc *time.Location, field, id string) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := ParseTimestamp(v.String, loc)
	if err != nil {
		logger.Warn("Ignoring malformed timestamp", "field", field, "id", id, "error", err)
		return nil
	}
	return &t
}

// optionalDate decodes a nullable date, logging and dropping bad values.
func optionalDate(v sql.NullString, loc *time.Location, field, id string) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := ParseDate(v.String, loc)
	if err != nil {
		logger.Warn("Ignoring malformed date", "field", field, "id", id, "error", err)
		return nil
	}
	return &t
}

// requiredTimestamp decodes a non-null timestamp, falling back to the zero time.
func requiredTimestamp(v string, loc *time.Location, field, id string) time.Time {
	t, err := ParseTimestamp(v, loc)
	if err != nil {
		logger.Warn("Ignoring malformed timestamp", "field", field, "id", id, "error", err)
		return time.Time{}
	}
	return t
}

func (r employeeRow) toModel(loc *time.Location) models.Employee {
	return models.Employee{
		ID:          r.ID,
		Name:        r.Name,
		Status:      constants.WorkStatus(r.Status),
		LastUpdated: requiredTimestamp(r.LastUpdated, loc, "last_updated", r.ID),
		TaskOfDayID: r.TaskOfDayID.String,
	}
}

func employeeToRow(e models.Employee) employeeRow {
	return employeeRow{
		ID:          e.ID,
		Name:        e.Name,
		Status:      string(e.Status),
		LastUpdated: FormatTimestamp(e.LastUpdated),
		TaskOfDayID: nullString(e.TaskOfDayID),
	}
}

// toModel decodes a task row. Bad recurrence data fails open: the task loads
// as non-recurring.
func (r taskRow) toModel(loc *time.Location) models.Task {
	t := models.Task{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		Description:       r.Description,
		Status:            constants.TaskStatus(r.Status),
		IsTaskOfDay:       r.IsTaskOfDay,
		CreatedAt:         requiredTimestamp(r.CreatedAt, loc, "created_at", r.ID),
		UpdatedAt:         requiredTimestamp(r.UpdatedAt, loc, "updated_at", r.ID),
		CompletedAt:       optionalTimestamp(r.CompletedAt, loc, "completed_at", r.ID),
		DueDate:           optionalDate(r.DueDate, loc, "due_date", r.ID),
		LastCompletedDate: optionalDate(r.LastCompletedDate, loc, "last_completed_date", r.ID),
	}

	if r.IsRecurring {
		p, err := DecodePattern(r.Recurrence.String)
		if err != nil {
			logger.Warn("Ignoring malformed recurrence", "task", r.ID, "error", err)
		}
		if p != nil && p.Type != constants.RecurrenceNone {
			t.IsRecurring = true
			t.Recurrence = p
		}
	}
	if !t.IsRecurring {
		t.LastCompletedDate = nil
	}
	return t
}

func taskToRow(t models.Task) (taskRow, error) {
	rec, err := EncodePattern(t.Recurrence)
	if err != nil {
		return taskRow{}, err
	}
	return taskRow{
		ID:                t.ID,
		EmployeeID:        t.EmployeeID,
		Description:       t.Description,
		Status:            string(t.Status),
		IsTaskOfDay:       t.IsTaskOfDay,
		CreatedAt:         FormatTimestamp(t.CreatedAt),
		UpdatedAt:         FormatTimestamp(t.UpdatedAt),
		CompletedAt:       nullTimestamp(t.CompletedAt),
		IsRecurring:       t.IsRecurring,
		Recurrence:        rec,
		DueDate:           nullDate(t.DueDate),
		LastCompletedDate: nullDate(t.LastCompletedDate),
	}, nil
}

func (r eventRow) toModel(loc *time.Location) models.CalendarEvent {
	e := models.CalendarEvent{
		ID:                r.ID,
		Title:             r.Title,
		Date:              requiredTimestamp(r.Date, loc, "date", r.ID),
		Type:              constants.EventType(r.EventType),
		EmployeeID:        r.EmployeeID.String,
		IsTrinidadHoliday: r.IsTrinidadHoliday,
		Year:              r.Year,
		Color:             r.Color.String,
		CreatedAt:         requiredTimestamp(r.CreatedAt, loc, "created_at", r.ID),
		UpdatedAt:         requiredTimestamp(r.UpdatedAt, loc, "updated_at", r.ID),
	}
	if e.Color == "" {
		e.Color = e.Type.DefaultColor()
	}
	return e
}

func eventToRow(e models.CalendarEvent) eventRow {
	return eventRow{
		ID:                e.ID,
		Title:             e.Title,
		Date:              FormatTimestamp(e.Date),
		EventType:         string(e.Type),
		EmployeeID:        nullString(e.EmployeeID),
		IsTrinidadHoliday: e.IsTrinidadHoliday,
		Year:              e.Year,
		Color:             nullString(e.Color),
		CreatedAt:         FormatTimestamp(e.CreatedAt),
		UpdatedAt:         FormatTimestamp(e.UpdatedAt),
	}
}
