package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/models"
)

var (
	employeeCols = []string{"id", "name", "status", "last_updated", "task_of_day_id"}
	taskCols     = []string{
		"id", "employee_id", "description", "status", "is_task_of_day", "created_at", "updated_at",
		"completed_at", "is_recurring", "recurrence", "due_date", "last_completed_date",
	}
)

func setupMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := newWithDB(sqlx.NewDb(db, "postgres"), time.UTC)
	store.SetClock(func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) })
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return store, mock
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func TestGetEmployeeUsesDollarPlaceholders(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectQuery(q("SELECT id, name, status, last_updated, task_of_day_id FROM employees WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow("e1", "Alice", "wfh", "2024-03-04T09:00:00.000000Z", nil))

	e, err := store.GetEmployee(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", e.Name)
	assert.Equal(t, constants.StatusWFH, e.Status)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), e.LastUpdated)
	assert.Empty(t, e.TaskOfDayID)
}

func TestGetTaskNotFound(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(taskCols))

	_, err := store.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHasHolidaysForYear(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM calendar_events WHERE is_trinidad_holiday = $1 AND year = $2")).
		WithArgs(true, 2024).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))

	seeded, err := store.HasHolidaysForYear(context.Background(), 2024)
	require.NoError(t, err)
	assert.True(t, seeded)
}

func TestInsertHolidaysIgnoresExistingIDs(t *testing.T) {
	store, mock := setupMock(t)
	day := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	events := []models.CalendarEvent{
		{ID: "trinidad-christmas-2024", Title: "Christmas Day", Date: day, Type: constants.EventHoliday, IsTrinidadHoliday: true, Year: 2024},
		{ID: "trinidad-boxing-day-2024", Title: "Boxing Day", Date: day.AddDate(0, 0, 1), Type: constants.EventHoliday, IsTrinidadHoliday: true, Year: 2024},
	}

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO calendar_events") + ".*" + q("ON CONFLICT (id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("INSERT INTO calendar_events") + ".*" + q("ON CONFLICT (id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.InsertHolidays(context.Background(), events))
}

func TestSetTaskOfDayRollsBackOnFailure(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM employees WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow("e1", "Alice", "in-office", "2024-03-04T09:00:00.000000Z", "t1"))
	mock.ExpectQuery(q("SELECT id FROM tasks WHERE employee_id = $1 AND is_task_of_day = $2")).
		WithArgs("e1", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec(q("UPDATE tasks SET is_task_of_day = $1, updated_at = CASE WHEN updated_at > $2 THEN updated_at ELSE $3 END")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE tasks SET is_task_of_day = $1")).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := store.SetTaskOfDay(context.Background(), "e1", "t2")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRemote)
}

func TestSetTaskOfDayCommitsClearSetAndMirror(t *testing.T) {
	store, mock := setupMock(t)
	ts := "2024-03-04T09:00:00.000000Z"

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM employees WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow("e1", "Alice", "in-office", ts, nil))
	mock.ExpectQuery(q("SELECT id FROM tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(q("UPDATE tasks SET is_task_of_day = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("UPDATE tasks SET is_task_of_day = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE employees SET task_of_day_id = $1 WHERE id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// re-reads for the change feed
	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t2", "e1", "focus", "active", true, ts, ts, nil, false, nil, nil, nil))
	mock.ExpectQuery(q("FROM employees WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow("e1", "Alice", "in-office", ts, "t2"))

	require.NoError(t, store.SetTaskOfDay(context.Background(), "e1", "t2"))
}

func TestDecodeNotification(t *testing.T) {
	store, mock := setupMock(t)
	ts := "2024-03-04T09:00:00.000000Z"

	change, err := store.decode(`{"collection":"tasks","kind":"delete","id":"t1"}`)
	require.NoError(t, err)
	assert.Equal(t, models.Change{Collection: constants.CollectionTasks, Kind: constants.ChangeDelete, ID: "t1"}, change)

	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).
		WithArgs("t2").
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			"t2", "e1", "standup notes", "active", false, ts, ts, nil,
			true, `{"type":"weekly","interval":1,"days_of_week":[1,3,5]}`, "2024-03-06", nil))

	change, err = store.decode(`{"collection":"tasks","kind":"update","id":"t2"}`)
	require.NoError(t, err)
	require.NotNil(t, change.Task)
	assert.Equal(t, constants.ChangeUpdate, change.Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, change.Task.Recurrence.DaysOfWeek)
	assert.Equal(t, "2024-03-06", change.Task.DueDate.Format(constants.DateFormat))

	_, err = store.decode(`not json`)
	assert.Error(t, err)
	_, err = store.decode(`{"collection":"widgets","kind":"insert","id":"w1"}`)
	assert.Error(t, err)
}

func TestDispatchPublishesToSubscribers(t *testing.T) {
	store, _ := setupMock(t)

	var got []models.Change
	// subscribe through the broker directly: no live server to LISTEN on
	unsubscribe := store.broker.Subscribe(constants.CollectionTasks, func(c models.Change) { got = append(got, c) })
	defer unsubscribe()

	store.dispatch(`{"collection":"tasks","kind":"delete","id":"t9"}`)
	store.dispatch(`{"collection":"calendar_events","kind":"delete","id":"ev1"}`)
	store.dispatch(`garbage`)

	require.Len(t, got, 1)
	assert.Equal(t, "t9", got[0].ID)
}
