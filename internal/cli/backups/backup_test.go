package backups

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/dtracker/internal/backup"
	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
)

func TestBackupCreateAndRestore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dtracker.db")
	store := sqlite.NewStore(dbPath, time.UTC)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := cli.NewContext(store, config.Default(), time.UTC)
	ctx.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	bg := ctx.Background()

	if _, err := store.AddEmployee(bg, models.Employee{Name: "Alice"}); err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	backups, err := backup.NewManager(dbPath).ListBackups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("ListBackups = %d, %v", len(backups), err)
	}

	if _, err := store.AddEmployee(bg, models.Employee{Name: "Bob"}); err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if err := (&BackupRestoreCmd{BackupFile: backups[0].Name(), Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	reopened := sqlite.NewStore(dbPath, time.UTC)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer reopened.Close()
	employees, err := reopened.ListEmployees(bg)
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(employees) != 1 || employees[0].Name != "Alice" {
		t.Errorf("restored employees = %+v", employees)
	}

	after, _ := backup.NewManager(dbPath).ListBackups()
	if len(after) != 2 {
		t.Errorf("expected the pre-restore snapshot to be kept, got %d backups", len(after))
	}
}

func TestBackupRestoreMissing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dtracker.db")
	store := sqlite.NewStore(dbPath, time.UTC)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := cli.NewContext(store, config.Default(), time.UTC)

	if err := (&BackupRestoreCmd{BackupFile: "missing.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for a missing backup")
	}
}
