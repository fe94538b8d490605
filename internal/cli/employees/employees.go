package employees

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

type EmployeeAddCmd struct {
	Name   string `arg:"" help:"Employee name."`
	Status string `short:"s" help:"Initial status (in-office|on-job|wfh|off)." default:"in-office"`
}

func (c *EmployeeAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("employee name cannot be empty")
	}
	status, err := cli.ParseWorkStatus(c.Status)
	if err != nil {
		return err
	}

	e, err := ctx.Store.AddEmployee(ctx.Background(), models.Employee{Name: name, Status: status})
	if err != nil {
		return err
	}
	fmt.Printf("Added employee: %s (ID: %s)\n", e.Name, e.ID)
	return nil
}

type EmployeeListCmd struct {
	ShowIDs bool `help:"Show employee IDs." name:"show-ids"`
}

func (c *EmployeeListCmd) Run(ctx *cli.Context) error {
	employees, err := ctx.Store.ListEmployees(ctx.Background())
	if err != nil {
		return fmt.Errorf("failed to get employees: %w", err)
	}
	if len(employees) == 0 {
		fmt.Println("No employees found")
		return nil
	}

	today := ctx.Today()
	fmt.Println("Employees:")
	for _, e := range employees {
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", e.ID)
		}
		updated := e.LastUpdated.In(ctx.Loc)
		stale := ""
		if updated.Before(today) {
			stale = " *not updated today*"
		}
		fmt.Printf("  %-20s %-16s updated %s%s%s\n",
			e.Name, e.Status.Label(), updated.Format("2006-01-02 15:04"), stale, idStr)

		if e.TaskOfDayID != "" {
			if t, err := ctx.Store.GetTask(ctx.Background(), e.TaskOfDayID); err == nil {
				fmt.Printf("      Task of the day: %s\n", t.Description)
			}
		}
	}
	return nil
}

type EmployeeDeleteCmd struct {
	Employee string `arg:"" help:"Employee ID or name."`
}

func (c *EmployeeDeleteCmd) Run(ctx *cli.Context) error {
	e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteEmployee(ctx.Background(), e.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted employee %s and their tasks and events\n", e.Name)
	return nil
}

type EmployeeStatusCmd struct {
	Employee string `arg:"" help:"Employee ID or name."`
	Status   string `arg:"" help:"New status (in-office|on-job|wfh|off, or 1-4)."`
}

func (c *EmployeeStatusCmd) Run(ctx *cli.Context) error {
	status, err := cli.ParseWorkStatus(c.Status)
	if err != nil {
		return err
	}
	e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
	if err != nil {
		return err
	}
	e, err = ctx.Store.UpdateEmployeeStatus(ctx.Background(), e.ID, status)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", e.Name, e.Status.Label())
	return nil
}

// EmployeeTouchCmd confirms an employee's status for today without changing it.
type EmployeeTouchCmd struct {
	Employee string `arg:"" help:"Employee ID or name."`
}

func (c *EmployeeTouchCmd) Run(ctx *cli.Context) error {
	e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
	if err != nil {
		return err
	}
	e, err = ctx.Store.TouchEmployee(ctx.Background(), e.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s (updated %s)\n", e.Name, e.Status.Label(), e.LastUpdated.In(ctx.Loc).Format(constants.TimeFormat))
	return nil
}
