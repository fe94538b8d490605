// Package export writes task activity to CSV and XLSX files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/utils"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	timestampLayout = "2006-01-02 15:04"
	filenameStamp   = "20060102-150405"
)

// Header is the column order of every export.
var Header = []string{
	"Employee",
	"Description",
	"Status",
	"Due Date",
	"Recurring",
	"Recurrence",
	"Created",
	"Updated",
	"Completed",
	"Task of Day",
}

// Row is one exported task with its owner's display name.
type Row struct {
	Employee string
	Task     models.Task
}

// Rows pairs tasks with employee names. Tasks whose owner is unknown keep
// the raw employee id.
func Rows(tasks []models.Task, employees []models.Employee) []Row {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		name, ok := names[t.EmployeeID]
		if !ok {
			name = t.EmployeeID
		}
		rows = append(rows, Row{Employee: name, Task: t})
	}
	return rows
}

// Records renders rows as string cells in Header order. Timestamps are shown
// in loc.
func Records(rows []Row, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.Local
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		t := r.Task
		out = append(out, []string{
			r.Employee,
			t.Description,
			string(t.Status),
			utils.FormatDate(t.DueDate),
			yesNo(t.IsRecurring),
			utils.DescribeRecurrence(t.Recurrence),
			stamp(&t.CreatedAt, loc),
			stamp(&t.UpdatedAt, loc),
			stamp(t.CompletedAt, loc),
			yesNo(t.IsTaskOfDay),
		})
	}
	return out
}

// Write renders rows in the given format. An empty input is reported as
// ErrNothingMatched and nothing is written.
func Write(w io.Writer, format Format, rows []Row, loc *time.Location) error {
	if len(rows) == 0 {
		return fmt.Errorf("no activities to export: %w", apperrors.ErrNothingMatched)
	}
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows, loc)
	case FormatXLSX:
		return WriteXLSX(w, rows, loc)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile writes rows to dir under a generated name and returns the path.
func WriteFile(dir string, format Format, rows []Row, loc *time.Location, name string) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no activities to export: %w", apperrors.ErrNothingMatched)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(f, format, rows, loc); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}

// Filename builds activities[-<filter>][-<from>_to_<to>]-<stamp>.<ext>. The
// date range part appears only when both ends are set.
func Filename(filter string, from, to *time.Time, now time.Time, ext Format) string {
	var b strings.Builder
	b.WriteString("activities")
	if filter != "" && filter != constants.EmployeeFilterAll {
		b.WriteString("-")
		b.WriteString(slug(filter))
	}
	if from != nil && to != nil {
		fmt.Fprintf(&b, "-%s_to_%s", from.Format(constants.DateFormat), to.Format(constants.DateFormat))
	}
	b.WriteString("-")
	b.WriteString(now.Format(filenameStamp))
	b.WriteString(".")
	b.WriteString(string(ext))
	return b.String()
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, s)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func stamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timestampLayout)
}
