package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/utils"
)

// apply resolves ref and persists a single change.
func apply(ctx *cli.Context, ref string, u models.TaskUpdate) (models.Task, error) {
	task, err := ctx.ResolveTask(ctx.Background(), ref)
	if err != nil {
		return models.Task{}, err
	}
	return ctx.Store.UpdateTask(ctx.Background(), task.ID, u)
}

type TaskStatusCmd struct {
	Task   string `arg:"" help:"Task ID or ID prefix."`
	Status string `arg:"" help:"New status." enum:"active,completed,deferred"`
}

func (c *TaskStatusCmd) Run(ctx *cli.Context) error {
	task, err := apply(ctx, c.Task, models.StatusChange{Status: constants.TaskStatus(c.Status)})
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", task.Description, task.Status)
	return nil
}

// TaskCompleteCmd completes a task. For a recurring task this finishes the
// current occurrence and moves the due date forward.
type TaskCompleteCmd struct {
	Task string `arg:"" help:"Task ID or ID prefix."`
}

func (c *TaskCompleteCmd) Run(ctx *cli.Context) error {
	task, err := apply(ctx, c.Task, models.StatusChange{Status: constants.TaskCompleted, At: ctx.Now().In(ctx.Loc)})
	if err != nil {
		return err
	}
	if !task.IsRecurring {
		fmt.Printf("Completed: %s\n", task.Description)
		return nil
	}

	updated, err := ctx.Scheduler.RefreshDueDates(ctx.Background(), []models.Task{task}, ctx.Today())
	if err != nil {
		return err
	}
	if len(updated) == 1 {
		task = updated[0]
	}
	fmt.Printf("Completed today's occurrence of %s, next due %s\n", task.Description, utils.FormatDate(task.DueDate))
	return nil
}

type TaskFocusCmd struct {
	Task     string `arg:"" optional:"" help:"Task ID or ID prefix."`
	Clear    bool   `help:"Clear the task of the day instead."`
	Employee string `short:"e" help:"Employee whose selection to clear (with --clear)."`
}

func (c *TaskFocusCmd) Run(ctx *cli.Context) error {
	bg := ctx.Background()
	if c.Clear {
		var employeeID string
		switch {
		case c.Employee != "":
			e, err := ctx.ResolveEmployee(bg, c.Employee)
			if err != nil {
				return err
			}
			employeeID = e.ID
		case c.Task != "":
			t, err := ctx.ResolveTask(bg, c.Task)
			if err != nil {
				return err
			}
			employeeID = t.EmployeeID
		default:
			return fmt.Errorf("--clear needs a task or --employee")
		}
		if err := ctx.Store.SetTaskOfDay(bg, employeeID, ""); err != nil {
			return err
		}
		fmt.Println("Cleared task of the day")
		return nil
	}

	if c.Task == "" {
		return fmt.Errorf("task is required")
	}
	task, err := ctx.ResolveTask(bg, c.Task)
	if err != nil {
		return err
	}
	if err := ctx.Store.SetTaskOfDay(bg, task.EmployeeID, task.ID); err != nil {
		return err
	}
	fmt.Printf("Task of the day: %s\n", task.Description)
	return nil
}

type TaskRecurCmd struct {
	Task string `arg:"" help:"Task ID or ID prefix."`

	cli.RecurrenceFlags `embed:""`
}

func (c *TaskRecurCmd) Run(ctx *cli.Context) error {
	pattern, err := c.Pattern()
	if err != nil {
		return err
	}
	task, err := apply(ctx, c.Task, models.RecurrenceChange{Pattern: pattern})
	if err != nil {
		return err
	}
	if !task.IsRecurring {
		fmt.Printf("%s no longer repeats\n", task.Description)
		return nil
	}

	updated, err := ctx.Scheduler.RefreshDueDates(ctx.Background(), []models.Task{task}, ctx.Today())
	if err != nil {
		return err
	}
	if len(updated) == 1 {
		task = updated[0]
	}
	fmt.Printf("%s repeats %s, next due %s\n", task.Description, utils.DescribeRecurrence(task.Recurrence), utils.FormatDate(task.DueDate))
	return nil
}

type TaskAssignCmd struct {
	Task     string `arg:"" help:"Task ID or ID prefix."`
	Employee string `arg:"" help:"Employee ID or name."`
}

func (c *TaskAssignCmd) Run(ctx *cli.Context) error {
	e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
	if err != nil {
		return err
	}
	task, err := apply(ctx, c.Task, models.AssignmentChange{EmployeeID: e.ID})
	if err != nil {
		return err
	}
	fmt.Printf("Assigned %s to %s\n", task.Description, e.Name)
	return nil
}

type TaskDueCmd struct {
	Task string `arg:"" help:"Task ID or ID prefix."`
	Date string `arg:"" help:"Due date (YYYY-MM-DD, today, tomorrow) or 'none'."`
}

func (c *TaskDueCmd) Run(ctx *cli.Context) error {
	var due *time.Time
	if !strings.EqualFold(c.Date, "none") {
		d, err := ctx.ParseDate(c.Date)
		if err != nil {
			return err
		}
		due = &d
	}
	task, err := apply(ctx, c.Task, models.DueDateChange{DueDate: due})
	if err != nil {
		return err
	}
	if task.DueDate == nil {
		fmt.Printf("Cleared due date of %s\n", task.Description)
		return nil
	}
	fmt.Printf("%s is due %s\n", task.Description, utils.FormatDate(task.DueDate))
	return nil
}

type TaskEditCmd struct {
	Task        string `arg:"" help:"Task ID or ID prefix."`
	Description string `arg:"" help:"New description."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	task, err := apply(ctx, c.Task, models.DescriptionChange{Description: strings.TrimSpace(c.Description)})
	if err != nil {
		return err
	}
	fmt.Printf("Updated task: %s\n", task.Description)
	return nil
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task ID or ID prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(ctx.Background(), c.Task)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteTask(ctx.Background(), task.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted task: %s\n", task.Description)
	return nil
}

// TaskRefreshCmd brings every stale recurring due date up to date.
type TaskRefreshCmd struct {
	Employee string `short:"e" help:"Only this employee's tasks (ID or name)."`
}

func (c *TaskRefreshCmd) Run(ctx *cli.Context) error {
	var ids []string
	if c.Employee != "" {
		e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
		if err != nil {
			return err
		}
		ids = []string{e.ID}
	}

	updated, err := ctx.Scheduler.RefreshEmployees(ctx.Background(), ctx.Today(), ids...)
	for _, t := range updated {
		fmt.Printf("  %s: next due %s\n", t.Description, utils.FormatDate(t.DueDate))
	}
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		fmt.Println("All recurring due dates are current")
		return nil
	}
	fmt.Printf("Refreshed %d task(s)\n", len(updated))
	return nil
}
