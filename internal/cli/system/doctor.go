package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/dtracker/internal/backup"
	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/scheduler"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
	"github.com/julianstephens/dtracker/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*cli.Context) error
	needsDB bool
	// warnOnly checks report but never fail the command
	warnOnly bool
}

var checks = []check{
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Migrations complete", run: checkMigrationsComplete, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warnOnly: true},
	{name: "Data validation", run: checkValidation, needsDB: true},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Holidays seeded", run: checkHolidaysSeeded, needsDB: true, warnOnly: true},
	{name: "Recurring due dates", run: checkDueDates, needsDB: true, warnOnly: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	if err := ctx.Store.Load(); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Some checks failed. Please review the errors above.")
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Println("All critical checks passed!")
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend does not report a schema version")
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		return fmt.Errorf("schema version is 0, run 'dtracker migrate'")
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend does not report a schema version")
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("%d pending migration(s), run 'dtracker migrate'", latest-current)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("backups are not managed for PostgreSQL; use pg_dump")
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'dtracker backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	result, err := validate(ctx)
	if err != nil {
		return err
	}
	if result.report.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found, run 'dtracker validate' for details", len(result.report.Conflicts))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Loc == nil {
		return fmt.Errorf("no timezone configured")
	}
	return nil
}

func checkHolidaysSeeded(ctx *cli.Context) error {
	year := ctx.Today().Year()
	ok, err := ctx.Store.HasHolidaysForYear(ctx.Background(), year)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("holidays for %d are not seeded yet, they will be on first calendar view", year)
	}
	return nil
}

func checkDueDates(ctx *cli.Context) error {
	tasks, err := ctx.Store.QueryTasks(ctx.Background(), storage.TaskQuery{RecurringOnly: true})
	if err != nil {
		return err
	}
	today := ctx.Today()
	stale := 0
	for _, t := range tasks {
		if next := scheduler.NextDueDate(t, today); next != nil && (t.DueDate == nil || !utils.SameDay(*t.DueDate, *next)) {
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d recurring task(s) have stale due dates, run 'dtracker task refresh'", stale)
	}
	return nil
}
