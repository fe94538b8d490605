package employees

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := cli.NewContext(store, config.Default(), time.UTC)
	ctx.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return ctx
}

func TestEmployeeAddCmd(t *testing.T) {
	ctx := setupTestContext(t)

	if err := (&EmployeeAddCmd{Name: "  Alice  ", Status: "remote"}).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	employees, err := ctx.Store.ListEmployees(ctx.Background())
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(employees) != 1 || employees[0].Name != "Alice" || employees[0].Status != constants.StatusWFH {
		t.Errorf("employees = %+v", employees)
	}

	if err := (&EmployeeAddCmd{Name: " ", Status: "in-office"}).Run(ctx); err == nil {
		t.Error("expected error for blank name")
	}
	if err := (&EmployeeAddCmd{Name: "Bob", Status: "holiday"}).Run(ctx); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestEmployeeStatusAndTouchCmd(t *testing.T) {
	ctx := setupTestContext(t)
	bg := ctx.Background()
	e, _ := ctx.Store.AddEmployee(bg, models.Employee{Name: "Carol"})

	if err := (&EmployeeStatusCmd{Employee: "carol", Status: "2"}).Run(ctx); err != nil {
		t.Fatalf("status: %v", err)
	}
	got, _ := ctx.Store.GetEmployee(bg, e.ID)
	if got.Status != constants.StatusOnJob {
		t.Errorf("status = %s, want on-job", got.Status)
	}

	if err := (&EmployeeTouchCmd{Employee: e.ID}).Run(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	touched, _ := ctx.Store.GetEmployee(bg, e.ID)
	if touched.Status != constants.StatusOnJob {
		t.Errorf("touch changed status to %s", touched.Status)
	}
	if touched.LastUpdated.Before(got.LastUpdated) {
		t.Error("touch moved last updated backwards")
	}

	if err := (&EmployeeListCmd{ShowIDs: true}).Run(ctx); err != nil {
		t.Errorf("list: %v", err)
	}
}

func TestEmployeeDeleteCmdCascades(t *testing.T) {
	ctx := setupTestContext(t)
	bg := ctx.Background()
	e, _ := ctx.Store.AddEmployee(bg, models.Employee{Name: "Dan"})
	if _, err := ctx.Store.AddTask(bg, models.Task{EmployeeID: e.ID, Description: "Sweep"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := (&EmployeeDeleteCmd{Employee: "Dan"}).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tasks, err := ctx.Store.QueryTasks(bg, storage.TaskQuery{})
	if err != nil {
		t.Fatalf("QueryTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected tasks to be deleted with their employee, got %d", len(tasks))
	}
	if err := (&EmployeeDeleteCmd{Employee: "Dan"}).Run(ctx); err == nil {
		t.Error("expected error deleting a missing employee")
	}
}
