package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/models"
)

var (
	created   = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	updated   = time.Date(2024, 3, 2, 17, 45, 0, 0, time.UTC)
	completed = time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	due       = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
)

func sampleRows() []Row {
	employees := []models.Employee{{ID: "e1", Name: "Alice Baptiste"}}
	tasks := []models.Task{
		{
			ID:          "t1",
			EmployeeID:  "e1",
			Description: `Call "Ramdass", then file report`,
			Status:      constants.TaskActive,
			IsTaskOfDay: true,
			CreatedAt:   created,
			UpdatedAt:   updated,
			IsRecurring: true,
			Recurrence:  &models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Friday}},
			DueDate:     &due,
		},
		{
			ID:          "t2",
			EmployeeID:  "gone",
			Description: "Site visit",
			Status:      constants.TaskCompleted,
			CreatedAt:   created,
			UpdatedAt:   completed,
			CompletedAt: &completed,
		},
	}
	return Rows(tasks, employees)
}

func TestRecords(t *testing.T) {
	recs := Records(sampleRows(), time.UTC)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{
		"Alice Baptiste",
		`Call "Ramdass", then file report`,
		"active",
		"2024-03-08",
		"Yes",
		"every week on Mon, Fri",
		"2024-03-01 08:30",
		"2024-03-02 17:45",
		"",
		"Yes",
	}, recs[0])

	assert.Equal(t, "gone", recs[1][0], "unknown owner keeps the id")
	assert.Equal(t, "No", recs[1][4])
	assert.Equal(t, "", recs[1][5])
	assert.Equal(t, "2024-03-03 12:00", recs[1][8])
	assert.Equal(t, "No", recs[1][9])
}

func TestRecordsUseLocation(t *testing.T) {
	loc := time.FixedZone("AST", -4*60*60)
	recs := Records(sampleRows(), loc)
	assert.Equal(t, "2024-03-01 04:30", recs[0][6])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleRows(), time.UTC))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Employee,Description,Status,Due Date,Recurring,Recurrence,Created,Updated,Completed,Task of Day\n"))
	assert.Contains(t, out, `"Call ""Ramdass"", then file report"`)
	assert.Contains(t, out, `"every week on Mon, Fri"`)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `Call "Ramdass", then file report`, records[1][1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleRows(), time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Alice Baptiste", rows[1][0])
	assert.Equal(t, "2024-03-08", rows[1][3])

	idx, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(idx)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteEmptyIsNothingMatched(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatCSV, nil, time.UTC)
	assert.ErrorIs(t, err, apperrors.ErrNothingMatched)
	assert.Zero(t, buf.Len())

	dir := t.TempDir()
	_, err = WriteFile(dir, FormatXLSX, nil, time.UTC, "x.xlsx")
	assert.ErrorIs(t, err, apperrors.ErrNothingMatched)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Format("pdf"), sampleRows(), time.UTC))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := WriteFile(dir, FormatCSV, sampleRows(), time.UTC, "activities.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "activities.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice Baptiste")
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 4, 5, 0, time.UTC)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter string
		from   *time.Time
		to     *time.Time
		ext    Format
		want   string
	}{
		{"plain", "", nil, nil, FormatCSV, "activities-20240304-150405.csv"},
		{"all is no filter", constants.EmployeeFilterAll, nil, nil, FormatCSV, "activities-20240304-150405.csv"},
		{"filter", "Alice Baptiste", nil, nil, FormatCSV, "activities-alice-baptiste-20240304-150405.csv"},
		{"range", "", &from, &to, FormatXLSX, "activities-2024-03-01_to_2024-03-31-20240304-150405.xlsx"},
		{"half range ignored", "", &from, nil, FormatCSV, "activities-20240304-150405.csv"},
		{"both", "completed", &from, &to, FormatCSV, "activities-completed-2024-03-01_to_2024-03-31-20240304-150405.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.filter, tt.from, tt.to, now, tt.ext))
		})
	}
}
