package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/backup"
	"github.com/julianstephens/dtracker/internal/config"
	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/holidays"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/scheduler"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/storage/sqlite"
	"github.com/julianstephens/dtracker/internal/utils"
)

type Context struct {
	Store      storage.Provider
	Scheduler  *scheduler.Scheduler
	Config     config.Config
	ConfigFile string
	Loc        *time.Location
	Now        func() time.Time
}

// NewContext wires the shared command dependencies around store.
func NewContext(store storage.Provider, cfg config.Config, loc *time.Location) *Context {
	if loc == nil {
		loc = time.Local
	}
	return &Context{
		Store:     store,
		Scheduler: scheduler.New(store),
		Config:    cfg,
		Loc:       loc,
		Now:       time.Now,
	}
}

// Background returns the context commands run their store calls under.
func (c *Context) Background() context.Context {
	return context.Background()
}

// Today returns the current civil date in the configured timezone.
func (c *Context) Today() time.Time {
	return utils.DateOf(c.Now().In(c.Loc))
}

// Seeder returns a holiday seeder bound to the store.
func (c *Context) Seeder() *holidays.Seeder {
	return holidays.NewSeeder(c.Store, c.Loc)
}

// SeedAhead seeds holidays from the current year through the configured
// number of years ahead.
func (c *Context) SeedAhead(ctx context.Context) error {
	year := c.Today().Year()
	return c.Seeder().SeedRange(ctx, year, year+c.Config.Holidays.YearsAhead)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveEmployee finds an employee by id or by case-insensitive name.
func (c *Context) ResolveEmployee(ctx context.Context, ref string) (models.Employee, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Employee{}, fmt.Errorf("employee cannot be empty")
	}
	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return models.Employee{}, err
	}
	var matches []models.Employee
	for _, e := range employees {
		if e.ID == ref {
			return e, nil
		}
		if strings.EqualFold(e.Name, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return models.Employee{}, fmt.Errorf("employee %q: %w", ref, apperrors.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Employee{}, fmt.Errorf("%d employees are named %q, use the id instead", len(matches), ref)
	}
}

// ResolveTask finds a task by id or by an unambiguous id prefix.
func (c *Context) ResolveTask(ctx context.Context, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("task id cannot be empty")
	}
	if t, err := c.Store.GetTask(ctx, ref); err == nil {
		return t, nil
	}
	tasks, err := c.Store.QueryTasks(ctx, storage.TaskQuery{})
	if err != nil {
		return models.Task{}, err
	}
	var matches []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("task %q: %w", ref, apperrors.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("task id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ParseDate parses YYYY-MM-DD, "today" or "tomorrow" as a civil date.
func (c *Context) ParseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return c.Today(), nil
	case "tomorrow":
		return c.Today().AddDate(0, 0, 1), nil
	case "yesterday":
		return c.Today().AddDate(0, 0, -1), nil
	}
	d, err := utils.ParseDateInLocation(s, c.Loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// ParseOptionalDate is ParseDate for flags that may be empty.
func (c *Context) ParseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := c.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ShortID shortens ids for tabular output.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ParseWorkStatus accepts a status value, its label, or its 1-based position.
func ParseWorkStatus(s string) (constants.WorkStatus, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(constants.WorkStatuses) {
		return constants.WorkStatuses[n-1], nil
	}
	for _, ws := range constants.WorkStatuses {
		if s == string(ws) || s == strings.ToLower(ws.Label()) {
			return ws, nil
		}
	}
	aliases := map[string]constants.WorkStatus{
		"office":  constants.StatusInOffice,
		"job":     constants.StatusOnJob,
		"onjob":   constants.StatusOnJob,
		"home":    constants.StatusWFH,
		"remote":  constants.StatusWFH,
		"day-off": constants.StatusOff,
		"out":     constants.StatusOff,
	}
	if ws, ok := aliases[s]; ok {
		return ws, nil
	}
	return "", fmt.Errorf("invalid status %q (expected in-office, on-job, wfh or off)", s)
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	parts := strings.Split(s, ",")
	var weekdays []time.Weekday

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
		} else {
			// Try parsing as number (0=Sunday, 6=Saturday)
			num, err := strconv.Atoi(part)
			if err == nil && num >= 0 && num <= 6 {
				weekdays = append(weekdays, time.Weekday(num))
			} else {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
		}
	}

	return weekdays, nil
}

// RecurrenceFlags are the flags shared by commands that set a recurrence rule.
type RecurrenceFlags struct {
	Repeat     string `short:"r" help:"Recurrence type (none|daily|weekly|monthly)." enum:"none,daily,weekly,monthly" default:"none"`
	Interval   int    `short:"i" help:"Repeat every N days, weeks or months." default:"1"`
	Weekdays   string `short:"w" help:"Comma-separated weekdays for weekly recurrence (e.g. mon,wed,fri)."`
	DayOfMonth int    `help:"Day of month (1-31) for monthly recurrence; shorter months use their last day."`
}

// Pattern builds the recurrence rule, or nil for "none".
func (f RecurrenceFlags) Pattern() (*models.RecurrencePattern, error) {
	typ := constants.RecurrenceType(f.Repeat)
	if typ == "" || typ == constants.RecurrenceNone {
		return nil, nil
	}
	p := &models.RecurrencePattern{Type: typ, Interval: f.Interval}
	if typ == constants.RecurrenceWeekly && f.Weekdays != "" {
		days, err := ParseWeekdays(f.Weekdays)
		if err != nil {
			return nil, err
		}
		p.DaysOfWeek = days
	}
	if typ == constants.RecurrenceMonthly {
		p.DayOfMonth = f.DayOfMonth
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}
	p.Normalize()
	return p, nil
}
