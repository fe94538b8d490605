package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/utils"
)

func optionalDate(loc *time.Location) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := utils.ParseDateInLocation(s, loc); err != nil {
			return fmt.Errorf("use YYYY-MM-DD")
		}
		return nil
	}
}

func optionalPositive(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil || i < 1 {
			return fmt.Errorf("%s must be a positive number", what)
		}
		return nil
	}
}

func (m Model) employeeOptions(everyone string) []huh.Option[string] {
	var opts []huh.Option[string]
	if everyone != "" {
		opts = append(opts, huh.NewOption(everyone, ""))
	}
	for _, e := range m.employees {
		opts = append(opts, huh.NewOption(e.Name, e.ID))
	}
	return opts
}

// NewTaskForm creates the form for adding a task
func (m Model) NewTaskForm(fm *TaskFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Employee").
				Options(m.employeeOptions("")...).
				Value(&fm.EmployeeID),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return models.ErrEmptyDescription
					}
					return nil
				}),
			huh.NewInput().
				Title("Due date (YYYY-MM-DD)").
				Description("Leave empty for none; recurring tasks get one automatically").
				Value(&fm.Due).
				Validate(optionalDate(m.loc)),
		),
		huh.NewGroup(
			huh.NewSelect[constants.RecurrenceType]().
				Title("Repeats").
				Options(
					huh.NewOption("Never", constants.RecurrenceNone),
					huh.NewOption("Daily", constants.RecurrenceDaily),
					huh.NewOption("Weekly", constants.RecurrenceWeekly),
					huh.NewOption("Monthly", constants.RecurrenceMonthly),
				).
				Value(&fm.Recurrence),
			huh.NewInput().
				Title("Every").
				Description("Interval in days, weeks or months").
				Value(&fm.Interval).
				Validate(optionalPositive("interval")),
			huh.NewInput().
				Title("Weekdays").
				Description("For weekly: e.g. mon,wed,fri").
				Value(&fm.Weekdays).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := cli.ParseWeekdays(s)
					return err
				}),
			huh.NewInput().
				Title("Day of month").
				Description("For monthly: 1-31, shorter months use their last day").
				Value(&fm.DayOfMonth).
				Validate(optionalPositive("day of month")),
		),
	).WithTheme(huh.ThemeDracula())
}

// task builds the task described by the form.
func (fm *TaskFormModel) task(loc *time.Location) (models.Task, error) {
	flags := cli.RecurrenceFlags{Repeat: string(fm.Recurrence), Interval: 1, Weekdays: fm.Weekdays}
	if n, err := strconv.Atoi(strings.TrimSpace(fm.Interval)); err == nil {
		flags.Interval = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(fm.DayOfMonth)); err == nil {
		flags.DayOfMonth = n
	}
	pattern, err := flags.Pattern()
	if err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		EmployeeID:  fm.EmployeeID,
		Description: strings.TrimSpace(fm.Description),
		IsRecurring: pattern != nil,
		Recurrence:  pattern,
	}
	if strings.TrimSpace(fm.Due) != "" {
		d, err := utils.ParseDateInLocation(fm.Due, loc)
		if err != nil {
			return models.Task{}, err
		}
		t.DueDate = &d
	}
	return t, nil
}

// NewEventForm creates the form for adding a calendar event
func (m Model) NewEventForm(fm *EventFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Date (YYYY-MM-DD)").
				Value(&fm.Date).
				Validate(func(s string) error {
					if _, err := utils.ParseDateInLocation(s, m.loc); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().
				Title("Time (HH:MM)").
				Description("Leave empty for an all-day entry").
				Value(&fm.Time).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse(constants.TimeFormat, s); err != nil {
						return fmt.Errorf("invalid time format, use HH:MM")
					}
					return nil
				}),
			huh.NewSelect[constants.EventType]().
				Title("Type").
				Options(
					huh.NewOption("Event", constants.EventEvent),
					huh.NewOption("Reminder", constants.EventReminder),
				).
				Value(&fm.Type),
			huh.NewSelect[string]().
				Title("For").
				Options(m.employeeOptions("Everyone")...).
				Value(&fm.EmployeeID),
		),
	).WithTheme(huh.ThemeDracula())
}

func (fm *EventFormModel) event(loc *time.Location) (models.CalendarEvent, error) {
	day, err := utils.ParseDateInLocation(fm.Date, loc)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	if strings.TrimSpace(fm.Time) != "" {
		t, err := time.Parse(constants.TimeFormat, fm.Time)
		if err != nil {
			return models.CalendarEvent{}, err
		}
		day = time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	}
	return models.CalendarEvent{
		Title:      strings.TrimSpace(fm.Title),
		Date:       day,
		Type:       fm.Type,
		EmployeeID: fm.EmployeeID,
	}, nil
}
