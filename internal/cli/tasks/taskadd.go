package tasks

import (
	"fmt"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/utils"
	"github.com/julianstephens/dtracker/internal/validation"
)

type TaskAddCmd struct {
	Employee    string `arg:"" help:"Employee ID or name."`
	Description string `arg:"" help:"What the employee is working on."`
	Due         string `short:"d" help:"Due date (YYYY-MM-DD, today, tomorrow)."`
	Focus       bool   `short:"f" help:"Make this the employee's task of the day."`

	cli.RecurrenceFlags `embed:""`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	bg := ctx.Background()

	e, err := ctx.ResolveEmployee(bg, c.Employee)
	if err != nil {
		return err
	}
	pattern, err := c.Pattern()
	if err != nil {
		return err
	}
	due, err := ctx.ParseOptionalDate(c.Due)
	if err != nil {
		return err
	}

	task := models.Task{
		EmployeeID:  e.ID,
		Description: c.Description,
		IsRecurring: pattern != nil,
		Recurrence:  pattern,
		DueDate:     due,
	}
	if conflicts := validation.New().ValidateTask(withDefaults(task)); len(conflicts) > 0 {
		return fmt.Errorf("invalid task: %s", conflicts[0].Description)
	}

	task, err = ctx.Store.AddTask(bg, task)
	if err != nil {
		return err
	}

	// a new recurring task without a due date gets its first occurrence now
	if task.IsRecurring && task.DueDate == nil {
		updated, err := ctx.Scheduler.RefreshDueDates(bg, []models.Task{task}, ctx.Today())
		if err != nil {
			return err
		}
		if len(updated) == 1 {
			task = updated[0]
		}
	}

	if c.Focus {
		if err := ctx.Store.SetTaskOfDay(bg, e.ID, task.ID); err != nil {
			return err
		}
	}

	fmt.Printf("Added task for %s: %s (ID: %s)\n", e.Name, task.Description, task.ID)
	if task.IsRecurring {
		fmt.Printf("  Repeats %s, next due %s\n", utils.DescribeRecurrence(task.Recurrence), utils.FormatDate(task.DueDate))
	}
	return nil
}

func withDefaults(t models.Task) models.Task {
	if t.Status == "" {
		t.Status = constants.TaskActive
	}
	return t
}
