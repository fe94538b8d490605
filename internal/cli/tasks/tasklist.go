package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/utils"
)

// TaskFilter holds the query flags shared by list and export.
type TaskFilter struct {
	Employee  string   `short:"e" help:"Only tasks of this employee (ID or name)."`
	Status    []string `short:"s" help:"Only tasks with these statuses (active|completed|deferred)."`
	Recurring bool     `help:"Only recurring tasks."`
	DueFrom   string   `help:"Due on or after this date."`
	DueTo     string   `help:"Due on or before this date."`
	From      string   `help:"Created on or after this date."`
	To        string   `help:"Created on or before this date."`
	Order     string   `help:"Sort column (created|updated|due|description|status)." default:"created"`
	Desc      bool     `help:"Sort descending."`
	Limit     uint64   `help:"Maximum number of tasks."`
}

// Query resolves the flags into a store query.
func (f *TaskFilter) Query(ctx *cli.Context) (storage.TaskQuery, error) {
	q := storage.TaskQuery{
		RecurringOnly: f.Recurring,
		OrderBy:       f.Order,
		Descending:    f.Desc,
		Limit:         f.Limit,
	}
	if !storage.ValidTaskOrder(f.Order) {
		return q, fmt.Errorf("invalid sort column %q", f.Order)
	}
	if f.Employee != "" && f.Employee != constants.EmployeeFilterAll {
		e, err := ctx.ResolveEmployee(ctx.Background(), f.Employee)
		if err != nil {
			return q, err
		}
		q.EmployeeIDs = []string{e.ID}
	}
	for _, s := range f.Status {
		status := constants.TaskStatus(strings.ToLower(s))
		if !status.Valid() {
			return q, fmt.Errorf("invalid status %q", s)
		}
		q.Statuses = append(q.Statuses, status)
	}

	var err error
	if q.DueFrom, err = ctx.ParseOptionalDate(f.DueFrom); err != nil {
		return q, err
	}
	if q.DueTo, err = ctx.ParseOptionalDate(f.DueTo); err != nil {
		return q, err
	}
	if q.CreatedFrom, err = ctx.ParseOptionalDate(f.From); err != nil {
		return q, err
	}
	if q.CreatedTo, err = ctx.ParseOptionalDate(f.To); err != nil {
		return q, err
	}
	return q, nil
}

type TaskListCmd struct {
	TaskFilter `embed:""`
	ShowIDs    bool `help:"Show task IDs." name:"show-ids"`
	NoRefresh  bool `help:"Do not bring recurring due dates up to date first."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	bg := ctx.Background()
	q, err := c.Query(ctx)
	if err != nil {
		return err
	}

	if !c.NoRefresh {
		if updated, err := ctx.Scheduler.RefreshEmployees(bg, ctx.Today(), q.EmployeeIDs...); err != nil {
			logger.Warn("Due date refresh incomplete", "error", err)
		} else if len(updated) > 0 {
			logger.Info("Refreshed due dates", "count", len(updated))
		}
	}

	tasks, err := ctx.Store.QueryTasks(bg, q)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	names := map[string]string{}
	if employees, err := ctx.Store.ListEmployees(bg); err == nil {
		for _, e := range employees {
			names[e.ID] = e.Name
		}
	}

	fmt.Println("Tasks:")
	for _, task := range tasks {
		fmt.Println("  " + formatTask(task, names[task.EmployeeID], c.ShowIDs))
		if task.IsRecurring {
			fmt.Printf("      Repeats %s", utils.DescribeRecurrence(task.Recurrence))
			if task.DueDate != nil {
				fmt.Printf(", next due %s", utils.FormatDate(task.DueDate))
			}
			if task.LastCompletedDate != nil {
				fmt.Printf(", last done %s", utils.FormatDate(task.LastCompletedDate))
			}
			fmt.Println()
		}
	}
	return nil
}

func formatTask(t models.Task, owner string, showID bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", t.Status)
	if t.IsTaskOfDay {
		b.WriteString(" ★")
	}
	fmt.Fprintf(&b, " %s", t.Description)
	if owner != "" {
		fmt.Fprintf(&b, " (%s)", owner)
	}
	if t.DueDate != nil && !t.IsRecurring {
		fmt.Fprintf(&b, " due %s", utils.FormatDate(t.DueDate))
	}
	if showID {
		fmt.Fprintf(&b, " (ID: %s)", t.ID)
	} else {
		fmt.Fprintf(&b, " [%s]", cli.ShortID(t.ID))
	}
	return b.String()
}
