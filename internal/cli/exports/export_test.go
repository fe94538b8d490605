package exports

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/cli/tasks"
	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) *cli.Context {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"), time.UTC)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.Export.Dir = filepath.Join(dir, "exports")
	ctx := cli.NewContext(store, cfg, time.UTC)
	ctx.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return ctx
}

func seed(t *testing.T, ctx *cli.Context) {
	t.Helper()
	bg := ctx.Background()
	alice, _ := ctx.Store.AddEmployee(bg, models.Employee{Name: "Alice Ng"})
	bob, _ := ctx.Store.AddEmployee(bg, models.Employee{Name: "Bob"})
	for _, task := range []models.Task{
		{EmployeeID: alice.ID, Description: "Fit windows"},
		{EmployeeID: alice.ID, Description: "Paint, then sand", Status: constants.TaskDeferred},
		{EmployeeID: bob.ID, Description: "Deliver tiles"},
	} {
		if _, err := ctx.Store.AddTask(bg, task); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}
}

func TestExportCmdCSV(t *testing.T) {
	ctx := setupTestContext(t)
	seed(t, ctx)

	cmd := ExportCmd{TaskFilter: tasks.TaskFilter{Employee: "alice ng", Order: "description"}, Format: "csv"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(ctx.Config.Export.Dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("export dir entries = %v, %v", entries, err)
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "activities-alice-ng-") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("unexpected file name %q", name)
	}

	f, err := os.Open(filepath.Join(ctx.Config.Export.Dir, name))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[1][1] != "Fit windows" || records[2][1] != "Paint, then sand" {
		t.Errorf("rows = %v", records[1:])
	}
	if records[2][2] != string(constants.TaskDeferred) {
		t.Errorf("status = %q, want deferred", records[2][2])
	}
}

func TestExportCmdXLSX(t *testing.T) {
	ctx := setupTestContext(t)
	seed(t, ctx)

	out := filepath.Join(t.TempDir(), "team.xlsx")
	cmd := ExportCmd{TaskFilter: tasks.TaskFilter{Order: "created"}, Format: "xlsx", Out: out}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("expected header plus 3 rows, got %d", len(rows))
	}
}

func TestExportCmdNothingMatched(t *testing.T) {
	ctx := setupTestContext(t)
	seed(t, ctx)

	cmd := ExportCmd{TaskFilter: tasks.TaskFilter{Status: []string{"completed"}, Order: "created"}, Format: "csv"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("empty export should not fail: %v", err)
	}
	if _, err := os.Stat(ctx.Config.Export.Dir); err == nil {
		entries, _ := os.ReadDir(ctx.Config.Export.Dir)
		if len(entries) != 0 {
			t.Errorf("expected no file for an empty export, got %d", len(entries))
		}
	}
}
