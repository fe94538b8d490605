package exports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/cli/tasks"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/export"
)

// ExportCmd writes the filtered activity list as CSV or XLSX.
type ExportCmd struct {
	tasks.TaskFilter `embed:""`

	Format string `short:"f" help:"Output format (csv|xlsx)." enum:"csv,xlsx" default:"csv"`
	Out    string `short:"o" help:"Output file, or - for stdout. Defaults to a generated name in the export directory."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	bg := ctx.Background()
	q, err := c.Query(ctx)
	if err != nil {
		return err
	}

	list, err := ctx.Store.QueryTasks(bg, q)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	employees, err := ctx.Store.ListEmployees(bg)
	if err != nil {
		return fmt.Errorf("failed to get employees: %w", err)
	}
	rows := export.Rows(list, employees)
	format := export.Format(c.Format)

	if c.Out == "-" {
		return notice(export.Write(os.Stdout, format, rows, ctx.Loc))
	}

	dir, name := ctx.Config.Export.Dir, c.Out
	if name == "" {
		filter := c.Employee
		for _, e := range employees {
			if len(q.EmployeeIDs) == 1 && e.ID == q.EmployeeIDs[0] {
				filter = e.Name
			}
		}
		name = export.Filename(filter, q.CreatedFrom, q.CreatedTo, ctx.Now().In(ctx.Loc), format)
	} else {
		dir, name = filepath.Split(name)
		if dir == "" {
			dir = "."
		}
	}

	path, err := export.WriteFile(dir, format, rows, ctx.Loc, name)
	if err != nil {
		return notice(err)
	}
	fmt.Printf("✓ Exported %d activities to %s\n", len(rows), path)
	return nil
}

// notice reports an empty result without failing the command.
func notice(err error) error {
	if errors.Is(err, apperrors.ErrNothingMatched) {
		fmt.Println(apperrors.Notice(err))
		return nil
	}
	return err
}
