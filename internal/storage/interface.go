package storage

import (
	"context"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Employees
	AddEmployee(ctx context.Context, e models.Employee) (models.Employee, error)
	GetEmployee(ctx context.Context, id string) (models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployeeStatus(ctx context.Context, id string, status constants.WorkStatus) (models.Employee, error)
	// TouchEmployee re-stamps last_updated without changing the status.
	TouchEmployee(ctx context.Context, id string) (models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error

	// Tasks
	AddTask(ctx context.Context, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	QueryTasks(ctx context.Context, q TaskQuery) ([]models.Task, error)
	// UpdateTask applies a single typed change and returns the stored row.
	UpdateTask(ctx context.Context, id string, u models.TaskUpdate) (models.Task, error)
	// SetTaskOfDay atomically makes taskID the employee's only task of the day.
	// An empty taskID clears the selection.
	SetTaskOfDay(ctx context.Context, employeeID, taskID string) error
	DeleteTask(ctx context.Context, id string) error

	// Calendar events
	AddEvent(ctx context.Context, e models.CalendarEvent) (models.CalendarEvent, error)
	// InsertHolidays inserts the events, ignoring ids that already exist.
	InsertHolidays(ctx context.Context, events []models.CalendarEvent) error
	GetEvent(ctx context.Context, id string) (models.CalendarEvent, error)
	QueryEvents(ctx context.Context, q EventQuery) ([]models.CalendarEvent, error)
	HasHolidaysForYear(ctx context.Context, year int) (bool, error)
	DeleteEvent(ctx context.Context, id string) error

	// Subscribe registers fn for changes to collection ("" for all). The
	// returned func removes the subscription.
	Subscribe(collection string, fn func(models.Change)) (unsubscribe func())

	// Utils
	GetConfigPath() string
}
