package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dtracker/internal/calendar"
	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/validation"
)

// filterID resolves an --employee flag to an employee id, keeping "" and
// "all" as the unfiltered view.
func filterID(ctx *cli.Context, ref string) (string, error) {
	if ref == "" || ref == constants.EmployeeFilterAll {
		return "", nil
	}
	e, err := ctx.ResolveEmployee(ctx.Background(), ref)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// monthEvents seeds the year's holidays and returns every event of the month.
func monthEvents(ctx *cli.Context, year int, month time.Month) ([]models.CalendarEvent, error) {
	bg := ctx.Background()
	if _, err := ctx.Seeder().Seed(bg, year); err != nil {
		return nil, err
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, ctx.Loc)
	last := first.AddDate(0, 1, -1)
	return ctx.Store.QueryEvents(bg, storage.EventQuery{From: &first, To: &last})
}

type CalendarMonthCmd struct {
	Month    string `arg:"" optional:"" help:"Month to show (YYYY-MM). Defaults to the current month."`
	Employee string `short:"e" help:"Only events for this employee (ID or name); holidays and shared events always show."`
	Offset   int    `help:"Shift the month by N months (negative for earlier)."`
}

func (c *CalendarMonthCmd) Run(ctx *cli.Context) error {
	today := ctx.Today()
	year, month := today.Year(), today.Month()
	if c.Month != "" {
		t, err := time.ParseInLocation("2006-01", c.Month, ctx.Loc)
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM", c.Month)
		}
		year, month = t.Year(), t.Month()
	}
	year, month = calendar.Shift(year, month, c.Offset)

	filter, err := filterID(ctx, c.Employee)
	if err != nil {
		return err
	}
	events, err := monthEvents(ctx, year, month)
	if err != nil {
		return err
	}

	grid := calendar.MonthGrid(events, year, month, filter, ctx.Loc)
	fmt.Printf("%s %d\n\n", month, year)
	fmt.Println(" Sun  Mon  Tue  Wed  Thu  Fri  Sat")
	for _, week := range grid.Weeks() {
		var b strings.Builder
		for _, day := range week {
			if day == nil {
				b.WriteString("     ")
				continue
			}
			marker := " "
			if len(day.Events) > 0 {
				marker = "*"
			}
			if day.Date.Equal(today) {
				fmt.Fprintf(&b, "[%2d]%s", day.Date.Day(), marker)
			} else {
				fmt.Fprintf(&b, " %2d %s", day.Date.Day(), marker)
			}
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}

	fmt.Println()
	for _, day := range grid.Days {
		for _, e := range day.Events {
			fmt.Printf("  %s  %s\n", day.Date.Format("Jan 02"), formatEvent(e, false))
		}
	}
	return nil
}

type CalendarDayCmd struct {
	Date     string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today, tomorrow)." default:"today"`
	Employee string `short:"e" help:"Only events for this employee (ID or name)."`
	ShowIDs  bool   `help:"Show event IDs." name:"show-ids"`
}

func (c *CalendarDayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	filter, err := filterID(ctx, c.Employee)
	if err != nil {
		return err
	}
	events, err := monthEvents(ctx, day.Year(), day.Month())
	if err != nil {
		return err
	}

	list := calendar.EventsForDay(events, day.Year(), day.Month(), day.Day(), filter)
	fmt.Println(day.Format("Monday, January 2, 2006"))
	if len(list) == 0 {
		fmt.Println("  No events")
		return nil
	}
	for _, e := range list {
		fmt.Println("  " + formatEvent(e, c.ShowIDs))
	}
	return nil
}

type CalendarAddCmd struct {
	Title    string `arg:"" help:"Event title."`
	Date     string `arg:"" help:"Event date (YYYY-MM-DD, today, tomorrow)."`
	Time     string `short:"t" help:"Time of day (HH:MM)."`
	Type     string `help:"Event type (event|reminder)." enum:"event,reminder" default:"event"`
	Employee string `short:"e" help:"Employee the event belongs to (ID or name). Empty applies to everyone."`
	Color    string `help:"Display color (#RRGGBB)."`
}

func (c *CalendarAddCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	date := day
	if c.Time != "" {
		t, err := time.Parse(constants.TimeFormat, c.Time)
		if err != nil {
			return fmt.Errorf("invalid time %q, expected HH:MM", c.Time)
		}
		date = time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, ctx.Loc)
	}

	event := models.CalendarEvent{
		Title: strings.TrimSpace(c.Title),
		Date:  date,
		Type:  constants.EventType(c.Type),
		Color: c.Color,
	}
	if c.Employee != "" {
		e, err := ctx.ResolveEmployee(ctx.Background(), c.Employee)
		if err != nil {
			return err
		}
		event.EmployeeID = e.ID
	}
	if conflicts := validation.New().ValidateEvent(event); len(conflicts) > 0 {
		return fmt.Errorf("invalid event: %s", conflicts[0].Description)
	}

	event, err = ctx.Store.AddEvent(ctx.Background(), event)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s: %s on %s (ID: %s)\n", event.Type, event.Title, event.Date.In(ctx.Loc).Format(constants.DateFormat), event.ID)
	return nil
}

type CalendarDeleteCmd struct {
	ID string `arg:"" help:"Event ID or ID prefix."`
}

func (c *CalendarDeleteCmd) Run(ctx *cli.Context) error {
	bg := ctx.Background()
	event, err := resolveEvent(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteEvent(bg, event.ID); err != nil {
		if errors.Is(err, apperrors.ErrHolidayReadOnly) {
			return fmt.Errorf("%s is a public holiday and cannot be deleted", event.Title)
		}
		return err
	}
	fmt.Printf("Deleted event: %s\n", event.Title)
	return nil
}

// CalendarHolidaysCmd lists the public holidays of a year, seeding it if needed.
type CalendarHolidaysCmd struct {
	Year int `arg:"" optional:"" help:"Year to list. Defaults to the current year."`
}

func (c *CalendarHolidaysCmd) Run(ctx *cli.Context) error {
	year := c.Year
	if year == 0 {
		year = ctx.Today().Year()
	}
	holidays, err := ctx.Seeder().Seed(ctx.Background(), year)
	if err != nil {
		return err
	}

	fmt.Printf("Public holidays %d:\n", year)
	for _, h := range holidays {
		fmt.Printf("  %s  %s\n", h.Date.In(ctx.Loc).Format("Mon Jan 02"), h.Title)
	}
	return nil
}

func resolveEvent(ctx *cli.Context, ref string) (models.CalendarEvent, error) {
	bg := ctx.Background()
	if e, err := ctx.Store.GetEvent(bg, ref); err == nil {
		return e, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return models.CalendarEvent{}, err
	}

	all, err := ctx.Store.QueryEvents(bg, storage.EventQuery{})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	var matches []models.CalendarEvent
	for _, e := range all {
		if strings.HasPrefix(e.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return models.CalendarEvent{}, fmt.Errorf("event %q: %w", ref, apperrors.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.CalendarEvent{}, fmt.Errorf("event id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func formatEvent(e models.CalendarEvent, showID bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Title)
	if h, m := e.Date.Hour(), e.Date.Minute(); h != 0 || m != 0 {
		fmt.Fprintf(&b, " at %02d:%02d", h, m)
	}
	if showID {
		fmt.Fprintf(&b, " (ID: %s)", e.ID)
	}
	return b.String()
}
