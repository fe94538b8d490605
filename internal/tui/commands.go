package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/scheduler"
	"github.com/julianstephens/dtracker/internal/session"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/validation"
)

const opTimeout = 30 * time.Second

type changeMsg struct {
	change models.Change
}

type employeesLoadedMsg struct {
	employees []models.Employee
	err       error
}

type tasksLoadedMsg struct {
	err error
}

type eventsLoadedMsg struct {
	year   int
	month  time.Month
	events []models.CalendarEvent
	err    error
}

type validationMsg struct {
	conflicts int
	err       error
}

// resultMsg reports the outcome of a write started from the UI. reload asks
// for the task list to be refreshed, which also derives missing due dates.
type resultMsg struct {
	status string
	err    error
	reload bool
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg{change: c}
	}
}

func (m Model) seedHolidays() tea.Cmd {
	seeder, year, ahead := m.seeder, m.today().Year(), m.yearsAhead
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := seeder.SeedRange(ctx, year, year+ahead); err != nil {
			return resultMsg{err: err}
		}
		return nil
	}
}

func (m Model) loadEmployees() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		employees, err := store.ListEmployees(ctx)
		return employeesLoadedMsg{employees: employees, err: err}
	}
}

func (m Model) loadTasks() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return tasksLoadedMsg{err: sess.Refresh(ctx)}
	}
}

func (m Model) loadEvents(year int, month time.Month) tea.Cmd {
	store, seeder, loc := m.store, m.seeder, m.loc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := seeder.Seed(ctx, year); err != nil {
			logger.Warn("Holiday seed failed", "year", year, "error", err)
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		events, err := store.QueryEvents(ctx, storage.EventQuery{From: &first, To: &last})
		return eventsLoadedMsg{year: year, month: month, events: events, err: err}
	}
}

func (m Model) validate() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		employees, err := store.ListEmployees(ctx)
		if err != nil {
			return validationMsg{err: err}
		}
		tasks, err := store.QueryTasks(ctx, storage.TaskQuery{})
		if err != nil {
			return validationMsg{err: err}
		}
		result := validation.New().ValidateTasks(tasks, employees)
		return validationMsg{conflicts: len(result.Conflicts)}
	}
}

func (m Model) applyTask(id string, u models.TaskUpdate) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		t, err := sess.Apply(ctx, id, u)
		if err != nil {
			return resultMsg{err: err}
		}
		// a finished instance or a new rule leaves a recurring task undated
		return resultMsg{
			status: fmt.Sprintf("Saved %s", t.Description),
			reload: t.IsRecurring && t.DueDate == nil,
		}
	}
}

func (m Model) setTaskOfDay(employeeID, taskID string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := sess.SetTaskOfDay(ctx, employeeID, taskID); err != nil {
			return resultMsg{err: err}
		}
		if taskID == "" {
			return resultMsg{status: "Cleared task of the day"}
		}
		return resultMsg{status: "Task of the day set"}
	}
}

func (m Model) addTask(t models.Task) tea.Cmd {
	store, today := m.store, m.today()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		saved, err := store.AddTask(ctx, t)
		if err != nil {
			return resultMsg{err: err}
		}
		// the first occurrence of a new recurring task
		if saved.IsRecurring && saved.DueDate == nil {
			if _, err := scheduler.New(store).RefreshDueDates(ctx, []models.Task{saved}, today); err != nil {
				logger.Warn("Due date refresh failed", "task", saved.ID, "error", err)
			}
		}
		return resultMsg{status: fmt.Sprintf("Added %s", saved.Description)}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := store.DeleteTask(ctx, id); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "Task deleted"}
	}
}

func (m Model) addEvent(e models.CalendarEvent) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		saved, err := store.AddEvent(ctx, e)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("Added %s", saved.Title)}
	}
}

func (m Model) setStatus(employeeID string, status constants.WorkStatus) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		e, err := store.UpdateEmployeeStatus(ctx, employeeID, status)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("%s is %s", e.Name, e.Status.Label())}
	}
}

func (m Model) touch(employeeID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		e, err := store.TouchEmployee(ctx, employeeID)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("%s confirmed for today", e.Name)}
	}
}

// errorText shortens the common failures for the status line.
func errorText(err error) string {
	switch {
	case errors.Is(err, session.ErrStale):
		return ""
	default:
		return err.Error()
	}
}
