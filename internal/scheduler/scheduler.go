package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/utils"
)

// maxCatchUp bounds how far an overdue task is rolled forward in one pass.
const maxCatchUp = 5000

// TaskStore is the part of the storage provider the refresh pass needs.
type TaskStore interface {
	QueryTasks(ctx context.Context, q storage.TaskQuery) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, u models.TaskUpdate) (models.Task, error)
}

// Scheduler keeps the due dates of recurring tasks current.
type Scheduler struct {
	store TaskStore
}

func New(store TaskStore) *Scheduler {
	return &Scheduler{store: store}
}

// NextDueDate returns the due date the task should carry on today, or nil
// when the task is not stale. An expired due date steps forward from itself;
// a missing one counts from the last completion, or starts the series at the
// first matching day after today. The result is always after today.
func NextDueDate(task models.Task, today time.Time) *time.Time {
	if !utils.IsDueForRefresh(task, today) {
		return nil
	}
	switch {
	case task.DueDate != nil:
		return utils.NextOccurrenceAfter(task.Recurrence, task.DueDate, nil, today, maxCatchUp)
	case task.LastCompletedDate != nil:
		return utils.NextOccurrenceAfter(task.Recurrence, nil, task.LastCompletedDate, today, maxCatchUp)
	}
	return utils.FirstOccurrence(task.Recurrence, today)
}

// RefreshDueDates recomputes the due date of every stale recurring task and
// writes it back, one write per task. A task is only written when the
// computed date differs from the stored one, so a second pass over the
// result is a no-op. Failed writes are logged and the pass continues; the
// returned error joins them. The updated tasks are returned in input order.
func (s *Scheduler) RefreshDueDates(ctx context.Context, tasks []models.Task, today time.Time) ([]models.Task, error) {
	var updated []models.Task
	var errs []error

	for _, task := range tasks {
		next := NextDueDate(task, today)
		if next == nil {
			continue
		}
		if task.DueDate != nil && utils.SameDay(*task.DueDate, *next) {
			continue
		}

		saved, err := s.store.UpdateTask(ctx, task.ID, models.DueDateChange{DueDate: next})
		if err != nil {
			logger.Error("Failed to refresh due date", "task", task.ID, "error", err)
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		logger.Debug("Refreshed due date", "task", task.ID, "due", utils.FormatDate(saved.DueDate))
		updated = append(updated, saved)
	}

	return updated, errors.Join(errs...)
}

// RefreshEmployees loads the recurring tasks of the given employees (all
// employees when none are given) and refreshes them.
func (s *Scheduler) RefreshEmployees(ctx context.Context, today time.Time, employeeIDs ...string) ([]models.Task, error) {
	tasks, err := s.store.QueryTasks(ctx, storage.TaskQuery{EmployeeIDs: employeeIDs, RecurringOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring tasks: %w", err)
	}
	return s.RefreshDueDates(ctx, tasks, today)
}
