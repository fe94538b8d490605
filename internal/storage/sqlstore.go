package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
)

// SQLStore implements the data operations of Provider over any SQL database
// holding the dtracker schema. The sqlite and postgres stores embed it and
// supply the dialect's placeholder format and change publisher.
type SQLStore struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	loc     *time.Location
	publish func(models.Change)
	now     func() time.Time
}

// NewSQLStore wraps db. publish is called after each committed write and may be nil.
func NewSQLStore(db *sqlx.DB, format sq.PlaceholderFormat, loc *time.Location, publish func(models.Change)) *SQLStore {
	if loc == nil {
		loc = time.Local
	}
	if publish == nil {
		publish = func(models.Change) {}
	}
	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		loc:     loc,
		publish: publish,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for server-assigned timestamps.
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Location() *time.Location {
	return s.loc
}

func (s *SQLStore) stamp() time.Time {
	return s.now().In(s.loc)
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Remote("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Remote("commit", err)
	}
	return nil
}

func exec(ctx context.Context, ex sqlx.ExecerContext, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// bumpUpdatedAt keeps updated_at monotonic: it only moves forward.
func bumpUpdatedAt(now string) sq.Sqlizer {
	return sq.Expr("CASE WHEN updated_at > ? THEN updated_at ELSE ? END", now, now)
}

// Employees

func (s *SQLStore) AddEmployee(ctx context.Context, e models.Employee) (models.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return models.Employee{}, fmt.Errorf("employee name cannot be empty")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = constants.StatusInOffice
	}
	if !e.Status.Valid() {
		return models.Employee{}, fmt.Errorf("unknown work status %q", e.Status)
	}
	e.LastUpdated = s.stamp()
	e.TaskOfDayID = ""

	row := employeeToRow(e)
	_, err := exec(ctx, s.db, s.builder.Insert("employees").
		Columns(employeeColumns...).
		Values(row.ID, row.Name, row.Status, row.LastUpdated, row.TaskOfDayID))
	if err != nil {
		return models.Employee{}, apperrors.Remote("add employee", err)
	}

	s.publish(models.Change{Collection: constants.CollectionEmployees, Kind: constants.ChangeInsert, ID: e.ID, Employee: &e})
	return e, nil
}

func (s *SQLStore) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	return s.getEmployee(ctx, s.db, id)
}

func (s *SQLStore) getEmployee(ctx context.Context, q sqlx.QueryerContext, id string) (models.Employee, error) {
	query, args, err := s.builder.Select(employeeColumns...).From("employees").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Employee{}, err
	}
	var row employeeRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Employee{}, fmt.Errorf("employee %s: %w", id, apperrors.ErrNotFound)
		}
		return models.Employee{}, apperrors.Remote("get employee", err)
	}
	return row.toModel(s.loc), nil
}

func (s *SQLStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	query, args, err := s.builder.Select(employeeColumns...).From("employees").OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []employeeRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, apperrors.Remote("list employees", err)
	}
	employees := make([]models.Employee, 0, len(rows))
	for _, r := range rows {
		employees = append(employees, r.toModel(s.loc))
	}
	return employees, nil
}

func (s *SQLStore) UpdateEmployeeStatus(ctx context.Context, id string, status constants.WorkStatus) (models.Employee, error) {
	if !status.Valid() {
		return models.Employee{}, fmt.Errorf("unknown work status %q", status)
	}
	return s.updateEmployee(ctx, id, "update employee status", map[string]interface{}{
		"status":       string(status),
		"last_updated": FormatTimestamp(s.stamp()),
	})
}

func (s *SQLStore) TouchEmployee(ctx context.Context, id string) (models.Employee, error) {
	return s.updateEmployee(ctx, id, "touch employee", map[string]interface{}{
		"last_updated": FormatTimestamp(s.stamp()),
	})
}

func (s *SQLStore) updateEmployee(ctx context.Context, id, op string, set map[string]interface{}) (models.Employee, error) {
	n, err := exec(ctx, s.db, s.builder.Update("employees").SetMap(set).Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Employee{}, apperrors.Remote(op, err)
	}
	if n == 0 {
		return models.Employee{}, fmt.Errorf("employee %s: %w", id, apperrors.ErrNotFound)
	}
	e, err := s.getEmployee(ctx, s.db, id)
	if err != nil {
		return models.Employee{}, err
	}
	s.publish(models.Change{Collection: constants.CollectionEmployees, Kind: constants.ChangeUpdate, ID: id, Employee: &e})
	return e, nil
}

// DeleteEmployee removes the employee together with their tasks and events.
func (s *SQLStore) DeleteEmployee(ctx context.Context, id string) error {
	var taskIDs []string
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.builder.Select("id").From("tasks").Where(sq.Eq{"employee_id": id}).ToSql()
		if err != nil {
			return err
		}
		if err := sqlx.SelectContext(ctx, tx, &taskIDs, query, args...); err != nil {
			return apperrors.Remote("delete employee", err)
		}
		if _, err := exec(ctx, tx, s.builder.Delete("tasks").Where(sq.Eq{"employee_id": id})); err != nil {
			return apperrors.Remote("delete employee tasks", err)
		}
		if _, err := exec(ctx, tx, s.builder.Delete("calendar_events").Where(sq.Eq{"employee_id": id})); err != nil {
			return apperrors.Remote("delete employee events", err)
		}
		n, err := exec(ctx, tx, s.builder.Delete("employees").Where(sq.Eq{"id": id}))
		if err != nil {
			return apperrors.Remote("delete employee", err)
		}
		if n == 0 {
			return fmt.Errorf("employee %s: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, taskID := range taskIDs {
		s.publish(models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeDelete, ID: taskID})
	}
	s.publish(models.Change{Collection: constants.CollectionEmployees, Kind: constants.ChangeDelete, ID: id})
	return nil
}

// Tasks

func (s *SQLStore) AddTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Description = strings.TrimSpace(t.Description)
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = constants.TaskActive
	}
	if t.Recurrence != nil && t.Recurrence.Type == constants.RecurrenceNone {
		t.Recurrence = nil
		t.IsRecurring = false
	}
	if t.Recurrence != nil {
		p := *t.Recurrence
		p.DaysOfWeek = append([]time.Weekday(nil), t.Recurrence.DaysOfWeek...)
		p.Normalize()
		t.Recurrence = &p
	}
	now := s.stamp()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.IsTaskOfDay = false
	if t.Status == constants.TaskCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if t.DueDate != nil {
		d := startOfDay(t.DueDate.In(s.loc))
		t.DueDate = &d
	}
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}

	row, err := taskToRow(t)
	if err != nil {
		return models.Task{}, err
	}
	_, err = exec(ctx, s.db, s.builder.Insert("tasks").
		Columns(taskColumns...).
		Values(row.ID, row.EmployeeID, row.Description, row.Status, row.IsTaskOfDay, row.CreatedAt, row.UpdatedAt,
			row.CompletedAt, row.IsRecurring, row.Recurrence, row.DueDate, row.LastCompletedDate))
	if err != nil {
		return models.Task{}, apperrors.Remote("add task", err)
	}

	s.publish(models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeInsert, ID: t.ID, Task: &t})
	return t, nil
}

func (s *SQLStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.getTask(ctx, s.db, id)
}

func (s *SQLStore) getTask(ctx context.Context, q sqlx.QueryerContext, id string) (models.Task, error) {
	query, args, err := s.builder.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Task{}, err
	}
	var row taskRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
		}
		return models.Task{}, apperrors.Remote("get task", err)
	}
	return row.toModel(s.loc), nil
}

func (s *SQLStore) QueryTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	query, args, err := q.apply(s.builder.Select(taskColumns...).From("tasks")).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, apperrors.Remote("query tasks", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel(s.loc))
	}
	return tasks, nil
}

func (s *SQLStore) UpdateTask(ctx context.Context, id string, u models.TaskUpdate) (models.Task, error) {
	var updated models.Task
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := s.getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := models.ApplyUpdate(cur, u, s.stamp())
		if err != nil {
			return fmt.Errorf("invalid %s change for task %s: %w", u.Kind(), id, err)
		}
		row, err := taskToRow(next)
		if err != nil {
			return err
		}
		_, err = exec(ctx, tx, s.builder.Update("tasks").SetMap(map[string]interface{}{
			"employee_id":         row.EmployeeID,
			"description":         row.Description,
			"status":              row.Status,
			"is_task_of_day":      row.IsTaskOfDay,
			"updated_at":          row.UpdatedAt,
			"completed_at":        row.CompletedAt,
			"is_recurring":        row.IsRecurring,
			"recurrence":          row.Recurrence,
			"due_date":            row.DueDate,
			"last_completed_date": row.LastCompletedDate,
		}).Where(sq.Eq{"id": id}))
		if err != nil {
			return apperrors.Remote("update task", err)
		}
		if cur.IsTaskOfDay && !next.IsTaskOfDay {
			_, err = exec(ctx, tx, s.builder.Update("employees").
				Set("task_of_day_id", nil).
				Where(sq.Eq{"task_of_day_id": id}))
			if err != nil {
				return apperrors.Remote("clear task of day", err)
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	logger.Debug("Task updated", "task", id, "change", u.Kind())
	s.publish(models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeUpdate, ID: id, Task: &updated})
	return updated, nil
}

func (s *SQLStore) SetTaskOfDay(ctx context.Context, employeeID, taskID string) error {
	var affected []string
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.getEmployee(ctx, tx, employeeID); err != nil {
			return err
		}

		query, args, err := s.builder.Select("id").From("tasks").
			Where(sq.Eq{"employee_id": employeeID, "is_task_of_day": true}).ToSql()
		if err != nil {
			return err
		}
		var previous []string
		if err := sqlx.SelectContext(ctx, tx, &previous, query, args...); err != nil {
			return apperrors.Remote("set task of day", err)
		}

		now := FormatTimestamp(s.stamp())
		_, err = exec(ctx, tx, s.builder.Update("tasks").
			Set("is_task_of_day", false).
			Set("updated_at", bumpUpdatedAt(now)).
			Where(sq.Eq{"employee_id": employeeID, "is_task_of_day": true}))
		if err != nil {
			return apperrors.Remote("clear task of day", err)
		}

		if taskID != "" {
			n, err := exec(ctx, tx, s.builder.Update("tasks").
				Set("is_task_of_day", true).
				Set("updated_at", bumpUpdatedAt(now)).
				Where(sq.Eq{"id": taskID, "employee_id": employeeID}))
			if err != nil {
				return apperrors.Remote("set task of day", err)
			}
			if n == 0 {
				return fmt.Errorf("task %s for employee %s: %w", taskID, employeeID, apperrors.ErrNotFound)
			}
		}

		_, err = exec(ctx, tx, s.builder.Update("employees").
			Set("task_of_day_id", nullString(taskID)).
			Where(sq.Eq{"id": employeeID}))
		if err != nil {
			return apperrors.Remote("set task of day", err)
		}

		affected = previous
		if taskID != "" {
			affected = append(affected, taskID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(affected))
	for _, id := range affected {
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, err := s.getTask(ctx, s.db, id); err == nil {
			s.publish(models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeUpdate, ID: id, Task: &t})
		}
	}
	if e, err := s.getEmployee(ctx, s.db, employeeID); err == nil {
		s.publish(models.Change{Collection: constants.CollectionEmployees, Kind: constants.ChangeUpdate, ID: employeeID, Employee: &e})
	}
	return nil
}

func (s *SQLStore) DeleteTask(ctx context.Context, id string) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := s.getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := exec(ctx, tx, s.builder.Delete("tasks").Where(sq.Eq{"id": id})); err != nil {
			return apperrors.Remote("delete task", err)
		}
		if cur.IsTaskOfDay {
			_, err = exec(ctx, tx, s.builder.Update("employees").
				Set("task_of_day_id", nil).
				Where(sq.Eq{"id": cur.EmployeeID, "task_of_day_id": id}))
			if err != nil {
				return apperrors.Remote("clear task of day", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeDelete, ID: id})
	return nil
}

// Calendar events

func (s *SQLStore) AddEvent(ctx context.Context, e models.CalendarEvent) (models.CalendarEvent, error) {
	if e.ReadOnly() {
		return models.CalendarEvent{}, apperrors.ErrHolidayReadOnly
	}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return models.CalendarEvent{}, fmt.Errorf("event title cannot be empty")
	}
	if e.Type == "" {
		e.Type = constants.EventEvent
	}
	if !e.Type.Valid() {
		return models.CalendarEvent{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Date.IsZero() {
		return models.CalendarEvent{}, fmt.Errorf("event date is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Color == "" {
		e.Color = e.Type.DefaultColor()
	}
	e.Date = e.Date.In(s.loc)
	e.Year = e.Date.Year()
	now := s.stamp()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := exec(ctx, s.db, s.insertEvent(eventToRow(e))); err != nil {
		return models.CalendarEvent{}, apperrors.Remote("add event", err)
	}
	s.publish(models.Change{Collection: constants.CollectionEvents, Kind: constants.ChangeInsert, ID: e.ID, Event: &e})
	return e, nil
}

func (s *SQLStore) insertEvent(row eventRow) sq.InsertBuilder {
	return s.builder.Insert("calendar_events").
		Columns(eventColumns...).
		Values(row.ID, row.Title, row.Date, row.EventType, row.EmployeeID, row.IsTrinidadHoliday, row.Year,
			row.Color, row.CreatedAt, row.UpdatedAt)
}

func (s *SQLStore) InsertHolidays(ctx context.Context, events []models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	now := s.stamp()
	var inserted []models.CalendarEvent
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, e := range events {
			if e.CreatedAt.IsZero() {
				e.CreatedAt = now
			}
			if e.UpdatedAt.IsZero() {
				e.UpdatedAt = e.CreatedAt
			}
			n, err := exec(ctx, tx, s.insertEvent(eventToRow(e)).Suffix("ON CONFLICT (id) DO NOTHING"))
			if err != nil {
				return apperrors.Remote("insert holidays", err)
			}
			if n > 0 {
				inserted = append(inserted, e)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range inserted {
		e := inserted[i]
		s.publish(models.Change{Collection: constants.CollectionEvents, Kind: constants.ChangeInsert, ID: e.ID, Event: &e})
	}
	return nil
}

func (s *SQLStore) QueryEvents(ctx context.Context, q EventQuery) ([]models.CalendarEvent, error) {
	query, args, err := q.apply(s.builder.Select(eventColumns...).From("calendar_events")).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, apperrors.Remote("query events", err)
	}
	events := make([]models.CalendarEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toModel(s.loc))
	}
	return events, nil
}

func (s *SQLStore) HasHolidaysForYear(ctx context.Context, year int) (bool, error) {
	query, args, err := s.builder.Select("COUNT(*)").From("calendar_events").
		Where(sq.Eq{"year": year, "is_trinidad_holiday": true}).ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := sqlx.GetContext(ctx, s.db, &count, query, args...); err != nil {
		return false, apperrors.Remote("check holidays", err)
	}
	return count > 0, nil
}

func (s *SQLStore) GetEvent(ctx context.Context, id string) (models.CalendarEvent, error) {
	query, args, err := s.builder.Select(eventColumns...).From("calendar_events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.CalendarEvent{}, err
	}
	var row eventRow
	if err := sqlx.GetContext(ctx, s.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CalendarEvent{}, fmt.Errorf("event %s: %w", id, apperrors.ErrNotFound)
		}
		return models.CalendarEvent{}, apperrors.Remote("get event", err)
	}
	return row.toModel(s.loc), nil
}

// DeleteEvent removes a user event. Seeded holidays are read-only.
func (s *SQLStore) DeleteEvent(ctx context.Context, id string) error {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if e.ReadOnly() {
		return apperrors.ErrHolidayReadOnly
	}
	if _, err := exec(ctx, s.db, s.builder.Delete("calendar_events").Where(sq.Eq{"id": id})); err != nil {
		return apperrors.Remote("delete event", err)
	}
	s.publish(models.Change{Collection: constants.CollectionEvents, Kind: constants.ChangeDelete, ID: id})
	return nil
}
