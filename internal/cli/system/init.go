package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/storage/postgres"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing SQLite database before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized dtracker storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.ConfigFile != "" {
		if _, err := os.Stat(ctx.ConfigFile); errors.Is(err, os.ErrNotExist) {
			if err := ctx.Config.Save(ctx.ConfigFile); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to: %s\n", ctx.ConfigFile)
		}
	}

	if err := ctx.SeedAhead(ctx.Background()); err != nil {
		return fmt.Errorf("failed to seed holidays: %w", err)
	}

	if c.Source != "" {
		fmt.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force is only supported for SQLite databases")
	}
	dbPath, _ := filepath.Abs(ctx.Store.GetConfigPath())
	if c.Source != "" {
		if src, err := filepath.Abs(c.Source); err == nil && src == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	_, err := os.Stat(dbPath)
	switch {
	case err == nil:
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
		}
		fmt.Printf("Deleted existing database at: %s\n", dbPath)
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) copyData(ctx *cli.Context) error {
	var source storage.Provider
	if postgres.IsURL(c.Source) {
		if valid, err := postgres.ValidateConnString(c.Source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return err
		}
		source = postgres.New(c.Source, ctx.Loc)
	} else {
		source = sqlite.NewStore(config.ExpandHome(c.Source), ctx.Loc)
	}

	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	bg := ctx.Background()

	fmt.Println("  Copying employees...")
	employees, err := source.ListEmployees(bg)
	if err != nil {
		return fmt.Errorf("failed to get employees from source: %w", err)
	}
	for _, e := range employees {
		if _, err := ctx.Store.AddEmployee(bg, e); err != nil {
			return fmt.Errorf("failed to add employee %s: %w", e.ID, err)
		}
	}
	fmt.Printf("    Copied %d employees\n", len(employees))

	fmt.Println("  Copying tasks...")
	tasks, err := source.QueryTasks(bg, storage.TaskQuery{})
	if err != nil {
		return fmt.Errorf("failed to get tasks from source: %w", err)
	}
	for _, t := range tasks {
		if _, err := ctx.Store.AddTask(bg, t); err != nil {
			return fmt.Errorf("failed to add task %s: %w", t.ID, err)
		}
		if t.IsTaskOfDay {
			if err := ctx.Store.SetTaskOfDay(bg, t.EmployeeID, t.ID); err != nil {
				return fmt.Errorf("failed to restore task of the day %s: %w", t.ID, err)
			}
		}
	}
	fmt.Printf("    Copied %d tasks\n", len(tasks))

	fmt.Println("  Copying calendar events...")
	events, err := source.QueryEvents(bg, storage.EventQuery{})
	if err != nil {
		return fmt.Errorf("failed to get events from source: %w", err)
	}
	copied := 0
	for _, e := range events {
		// holidays are regenerated by the seeder
		if e.ReadOnly() {
			continue
		}
		if _, err := ctx.Store.AddEvent(bg, e); err != nil {
			return fmt.Errorf("failed to add event %s: %w", e.ID, err)
		}
		copied++
	}
	fmt.Printf("    Copied %d events\n", copied)
	return nil
}
