package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) *Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := NewContext(store, config.Default(), time.UTC)
	ctx.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	return ctx
}

func TestParseDate(t *testing.T) {
	ctx := &Context{Loc: time.UTC, Now: func() time.Time { return time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC) }}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"today", "2024-03-15", false},
		{"Tomorrow", "2024-03-16", false},
		{"yesterday", "2024-03-14", false},
		{"2024-02-29", "2024-02-29", false},
		{"2023-02-29", "", true},
		{"15/03/2024", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ctx.ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.Format(constants.DateFormat) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format(constants.DateFormat), tt.want)
			}
		})
	}

	if d, err := ctx.ParseOptionalDate(""); err != nil || d != nil {
		t.Errorf("ParseOptionalDate(\"\") = %v, %v, want nil, nil", d, err)
	}
}

func TestParseWorkStatus(t *testing.T) {
	tests := []struct {
		in   string
		want constants.WorkStatus
	}{
		{"in-office", constants.StatusInOffice},
		{"2", constants.StatusOnJob},
		{"Work from Home", constants.StatusWFH},
		{"remote", constants.StatusWFH},
		{"OFF", constants.StatusOff},
	}
	for _, tt := range tests {
		got, err := ParseWorkStatus(tt.in)
		if err != nil {
			t.Errorf("ParseWorkStatus(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWorkStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "5", "vacation"} {
		if _, err := ParseWorkStatus(bad); err == nil {
			t.Errorf("ParseWorkStatus(%q) expected error", bad)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays("mon, Friday,0")
	if err != nil {
		t.Fatalf("ParseWeekdays error: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Friday, time.Sunday}
	if len(got) != len(want) {
		t.Fatalf("ParseWeekdays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseWeekdays[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ParseWeekdays("mon,funday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}

func TestRecurrenceFlagsPattern(t *testing.T) {
	p, err := RecurrenceFlags{Repeat: "none"}.Pattern()
	if err != nil || p != nil {
		t.Fatalf("none = %v, %v, want nil pattern", p, err)
	}

	p, err = RecurrenceFlags{Repeat: "weekly", Interval: 2, Weekdays: "fri,mon,fri"}.Pattern()
	if err != nil {
		t.Fatalf("weekly error: %v", err)
	}
	if p.Interval != 2 || len(p.DaysOfWeek) != 2 || p.DaysOfWeek[0] != time.Monday {
		t.Errorf("weekly pattern = %+v, want interval 2 on Mon, Fri", p)
	}

	p, err = RecurrenceFlags{Repeat: "monthly", Interval: 1, DayOfMonth: 31}.Pattern()
	if err != nil {
		t.Fatalf("monthly error: %v", err)
	}
	if p.DayOfMonth != 31 {
		t.Errorf("DayOfMonth = %d, want 31", p.DayOfMonth)
	}

	if _, err := (RecurrenceFlags{Repeat: "monthly", Interval: 1, DayOfMonth: 32}).Pattern(); err == nil {
		t.Error("expected error for day of month 32")
	}

	for _, interval := range []int{0, -3} {
		if _, err := (RecurrenceFlags{Repeat: "daily", Interval: interval}).Pattern(); err == nil {
			t.Errorf("expected error for interval %d", interval)
		}
	}
}

func TestResolveEmployee(t *testing.T) {
	ctx := setupTestContext(t)
	bg := context.Background()

	alice, err := ctx.Store.AddEmployee(bg, models.Employee{Name: "Alice", Status: constants.StatusInOffice})
	if err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}

	got, err := ctx.ResolveEmployee(bg, "alice")
	if err != nil || got.ID != alice.ID {
		t.Errorf("ResolveEmployee by name = %v, %v", got.ID, err)
	}
	got, err = ctx.ResolveEmployee(bg, alice.ID)
	if err != nil || got.Name != "Alice" {
		t.Errorf("ResolveEmployee by id = %v, %v", got.Name, err)
	}

	if _, err := ctx.ResolveEmployee(bg, "carol"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := ctx.Store.AddEmployee(bg, models.Employee{Name: "ALICE", Status: constants.StatusWFH}); err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if _, err := ctx.ResolveEmployee(bg, "Alice"); err == nil {
		t.Error("expected ambiguity error for duplicate names")
	}
}

func TestResolveTask(t *testing.T) {
	ctx := setupTestContext(t)
	bg := context.Background()

	e, err := ctx.Store.AddEmployee(bg, models.Employee{Name: "Bob", Status: constants.StatusOnJob})
	if err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	task, err := ctx.Store.AddTask(bg, models.Task{ID: "abc123-task", EmployeeID: e.ID, Description: "Fix pump"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := ctx.Store.AddTask(bg, models.Task{ID: "abd456-task", EmployeeID: e.ID, Description: "Order parts"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	got, err := ctx.ResolveTask(bg, "abc")
	if err != nil || got.ID != task.ID {
		t.Errorf("ResolveTask(prefix) = %v, %v", got.ID, err)
	}
	if _, err := ctx.ResolveTask(bg, "ab"); err == nil {
		t.Error("expected ambiguity error")
	}
	if _, err := ctx.ResolveTask(bg, "zzz"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789"); got != "01234567" {
		t.Errorf("ShortID = %s", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID = %s", got)
	}
}
