package system

import (
	"fmt"

	"github.com/julianstephens/dtracker/internal/cli"
)

type migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend does not support migrations")
	}

	count, err := m.Migrate(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
