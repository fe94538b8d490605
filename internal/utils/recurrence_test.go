package utils

import (
	"testing"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func datePtr(t *testing.T, s string) *time.Time {
	d := mustDate(t, s)
	return &d
}

func TestNextOccurrence_Daily(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		p := &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: n}
		ref := mustDate(t, "2024-02-27")
		got := NextOccurrence(p, &ref, nil)
		if got == nil {
			t.Fatalf("interval %d: expected a date, got nil", n)
		}
		want := ref.AddDate(0, 0, n)
		if !got.Equal(want) {
			t.Errorf("interval %d: got %s, want %s", n, got.Format(constants.DateFormat), want.Format(constants.DateFormat))
		}
	}
}

func TestNextOccurrence_Weekly(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		days     []time.Weekday
		ref      string
		want     string
	}{
		{
			name:     "wednesday snaps to friday",
			interval: 1,
			days:     []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			ref:      "2024-01-03", // Wednesday
			want:     "2024-01-12", // Friday
		},
		{
			name:     "friday wraps to monday of next configured week",
			interval: 1,
			days:     []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			ref:      "2024-01-05", // Friday
			want:     "2024-01-15", // Monday
		},
		{
			name:     "unsorted weekdays behave like sorted",
			interval: 1,
			days:     []time.Weekday{time.Friday, time.Monday, time.Wednesday},
			ref:      "2024-01-03",
			want:     "2024-01-12",
		},
		{
			name:     "no weekdays keeps the plain jump",
			interval: 2,
			ref:      "2024-01-03",
			want:     "2024-01-17",
		},
		{
			name:     "saturday wraps to sunday",
			interval: 1,
			days:     []time.Weekday{time.Sunday},
			ref:      "2024-01-06", // Saturday
			want:     "2024-01-14", // Sunday
		},
		{
			name:     "only configured day equals landing day",
			interval: 1,
			days:     []time.Weekday{time.Wednesday},
			ref:      "2024-01-03",
			want:     "2024-01-17",
		},
		{
			name:     "crosses year boundary",
			interval: 1,
			days:     []time.Weekday{time.Tuesday},
			ref:      "2024-12-30", // Monday
			want:     "2025-01-07", // Tuesday
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: tt.interval, DaysOfWeek: tt.days}
			got := NextOccurrence(p, datePtr(t, tt.ref), nil)
			if got == nil {
				t.Fatal("expected a date, got nil")
			}
			if got.Format(constants.DateFormat) != tt.want {
				t.Errorf("got %s (%s), want %s", got.Format(constants.DateFormat), got.Weekday(), tt.want)
			}
		})
	}
}

func TestNextOccurrence_Monthly(t *testing.T) {
	tests := []struct {
		name       string
		interval   int
		dayOfMonth int
		ref        string
		want       string
	}{
		{"clamps to leap february", 1, 31, "2024-01-31", "2024-02-29"},
		{"clamps to common february", 1, 31, "2023-01-31", "2023-02-28"},
		{"keeps day when it fits", 1, 15, "2024-01-10", "2024-02-15"},
		{"no day of month uses base day", 1, 0, "2024-01-20", "2024-02-20"},
		{"no day of month still clamps", 1, 0, "2024-03-31", "2024-04-30"},
		{"multi month interval", 3, 0, "2024-11-30", "2025-02-28"},
		{"crosses year", 1, 5, "2024-12-05", "2025-01-05"},
		{"yearly via twelve months", 12, 29, "2024-02-29", "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: tt.interval, DayOfMonth: tt.dayOfMonth}
			got := NextOccurrence(p, datePtr(t, tt.ref), nil)
			if got == nil {
				t.Fatal("expected a date, got nil")
			}
			if got.Format(constants.DateFormat) != tt.want {
				t.Errorf("got %s, want %s", got.Format(constants.DateFormat), tt.want)
			}
		})
	}
}

func TestNextOccurrence_UsesLastCompleted(t *testing.T) {
	p := &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 2}
	got := NextOccurrence(p, datePtr(t, "2024-05-01"), datePtr(t, "2024-05-10"))
	if got == nil || got.Format(constants.DateFormat) != "2024-05-12" {
		t.Errorf("expected 2024-05-12 from last completed date, got %v", got)
	}
}

func TestNextOccurrence_Nil(t *testing.T) {
	ref := mustDate(t, "2024-05-01")
	tests := []struct {
		name string
		p    *models.RecurrencePattern
		ref  *time.Time
	}{
		{"nil pattern", nil, &ref},
		{"nil base", &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1}, nil},
		{"none type", &models.RecurrencePattern{Type: constants.RecurrenceNone, Interval: 1}, &ref},
		{"unknown type", &models.RecurrencePattern{Type: "yearly", Interval: 1}, &ref},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOccurrence(tt.p, tt.ref, nil); got != nil {
				t.Errorf("expected nil, got %s", got.Format(constants.DateFormat))
			}
		})
	}
}

func TestNextOccurrence_Deterministic(t *testing.T) {
	patterns := []*models.RecurrencePattern{
		{Type: constants.RecurrenceDaily, Interval: 3},
		{Type: constants.RecurrenceWeekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Tuesday, time.Thursday}},
		{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 31},
	}
	start := mustDate(t, "2024-01-01")
	for _, p := range patterns {
		for i := 0; i < 400; i++ {
			ref := start.AddDate(0, 0, i)
			a := NextOccurrence(p, &ref, nil)
			b := NextOccurrence(p, &ref, nil)
			if a == nil || b == nil || !a.Equal(*b) {
				t.Fatalf("%s from %s: results differ (%v vs %v)", p.Type, ref.Format(constants.DateFormat), a, b)
			}
			if !a.After(ref) {
				t.Fatalf("%s from %s: next %s is not after the base", p.Type, ref.Format(constants.DateFormat), a.Format(constants.DateFormat))
			}
		}
	}
}

func TestNextOccurrence_DoesNotMutateWeekdays(t *testing.T) {
	days := []time.Weekday{time.Friday, time.Monday}
	p := &models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1, DaysOfWeek: days}
	NextOccurrence(p, datePtr(t, "2024-01-03"), nil)
	if days[0] != time.Friday || days[1] != time.Monday {
		t.Errorf("pattern weekdays were reordered: %v", days)
	}
}

func TestNextOccurrenceAfter(t *testing.T) {
	p := &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1}
	got := NextOccurrenceAfter(p, datePtr(t, "2024-01-01"), nil, mustDate(t, "2024-01-10"), 1000)
	if got == nil || got.Format(constants.DateFormat) != "2024-01-11" {
		t.Errorf("expected 2024-01-11, got %v", got)
	}

	weekly := &models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1}
	got = NextOccurrenceAfter(weekly, datePtr(t, "2024-01-01"), nil, mustDate(t, "2024-01-01"), 1000)
	if got == nil || got.Format(constants.DateFormat) != "2024-01-08" {
		t.Errorf("expected a single step to 2024-01-08, got %v", got)
	}
}

func TestFirstOccurrence(t *testing.T) {
	wednesday := mustDate(t, "2024-06-05")
	tests := []struct {
		name string
		p    models.RecurrencePattern
		want string
	}{
		{"daily", models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 3}, "2024-06-06"},
		{"weekly nearest weekday", models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday, time.Thursday}}, "2024-06-06"},
		{"weekly same weekday wraps", models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Wednesday}}, "2024-06-12"},
		{"weekly without days", models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 1}, "2024-06-12"},
		{"monthly later this month", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 15}, "2024-06-15"},
		{"monthly clamps this month", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 31}, "2024-06-30"},
		{"monthly already passed", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 5}, "2024-07-05"},
		{"monthly without day", models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1}, "2024-07-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstOccurrence(&tt.p, wednesday)
			if got == nil || got.Format(constants.DateFormat) != tt.want {
				t.Errorf("FirstOccurrence() = %v, want %s", got, tt.want)
			}
		})
	}
	if FirstOccurrence(nil, wednesday) != nil {
		t.Error("expected nil for a missing pattern")
	}
}

func TestIsDueForRefresh(t *testing.T) {
	today := mustDate(t, "2024-06-10")
	daily := &models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1}

	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{"not recurring", models.Task{Status: constants.TaskActive}, false},
		{"completed", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskCompleted, DueDate: datePtr(t, "2024-06-01")}, false},
		{"past due", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskActive, DueDate: datePtr(t, "2024-06-01")}, true},
		{"due today", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskActive, DueDate: datePtr(t, "2024-06-10")}, true},
		{"future", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskActive, DueDate: datePtr(t, "2024-06-11")}, false},
		{"future date set after a completion", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskDeferred, DueDate: datePtr(t, "2024-06-11"), LastCompletedDate: datePtr(t, "2024-06-10")}, false},
		{"just completed", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskActive, LastCompletedDate: datePtr(t, "2024-06-10")}, true},
		{"no due date yet", models.Task{IsRecurring: true, Recurrence: daily, Status: constants.TaskActive}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueForRefresh(tt.task, today); got != tt.want {
				t.Errorf("IsDueForRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescribeRecurrence(t *testing.T) {
	tests := []struct {
		p    *models.RecurrencePattern
		want string
	}{
		{nil, ""},
		{&models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 1}, "every day"},
		{&models.RecurrencePattern{Type: constants.RecurrenceDaily, Interval: 3}, "every 3 days"},
		{&models.RecurrencePattern{Type: constants.RecurrenceWeekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}}, "every 2 weeks on Mon, Wed"},
		{&models.RecurrencePattern{Type: constants.RecurrenceMonthly, Interval: 1, DayOfMonth: 31}, "every month on day 31"},
	}
	for _, tt := range tests {
		if got := DescribeRecurrence(tt.p); got != tt.want {
			t.Errorf("DescribeRecurrence(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
