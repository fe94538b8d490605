package system

import (
	"fmt"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Repair conflicting task-of-the-day selections."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	result, err := validate(ctx)
	if err != nil {
		return err
	}

	fmt.Print(result.report.FormatReport())
	if !result.report.HasConflicts() {
		fmt.Println()
		return nil
	}

	if !c.Fix {
		return fmt.Errorf("%d conflict(s) found", len(result.report.Conflicts))
	}

	actions := validation.AutoFixTaskOfDay(result.report.Conflicts, result.tasks, func(employeeID, taskID string) error {
		return ctx.Store.SetTaskOfDay(ctx.Background(), employeeID, taskID)
	})
	if len(actions) == 0 {
		return fmt.Errorf("no automatic fixes available for %d conflict(s)", len(result.report.Conflicts))
	}
	fmt.Println("\nApplied fixes:")
	for _, a := range actions {
		fmt.Printf("- %s\n", a.Action)
	}

	after, err := validate(ctx)
	if err != nil {
		return err
	}
	if after.report.HasConflicts() {
		return fmt.Errorf("%d conflict(s) remain after fixing", len(after.report.Conflicts))
	}
	return nil
}

type validationRun struct {
	report validation.ValidationResult
	tasks  []models.Task
}

// validate checks every stored task and event.
func validate(ctx *cli.Context) (validationRun, error) {
	bg := ctx.Background()
	employees, err := ctx.Store.ListEmployees(bg)
	if err != nil {
		return validationRun{}, fmt.Errorf("failed to get employees: %w", err)
	}
	tasks, err := ctx.Store.QueryTasks(bg, storage.TaskQuery{})
	if err != nil {
		return validationRun{}, fmt.Errorf("failed to get tasks: %w", err)
	}
	events, err := ctx.Store.QueryEvents(bg, storage.EventQuery{})
	if err != nil {
		return validationRun{}, fmt.Errorf("failed to get events: %w", err)
	}

	v := validation.New()
	report := v.ValidateTasks(tasks, employees)
	for _, e := range events {
		report.Conflicts = append(report.Conflicts, v.ValidateEvent(e)...)
	}
	return validationRun{report: report, tasks: tasks}, nil
}
