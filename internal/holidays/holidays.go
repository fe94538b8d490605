package holidays

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
)

type fixedHoliday struct {
	slug  string
	title string
	month time.Month
	day   int
}

var fixedHolidays = []fixedHoliday{
	{"new-year", "New Year's Day", time.January, 1},
	{"indian-arrival", "Indian Arrival Day", time.May, 30},
	{"labour-day", "Labour Day", time.June, 19},
	{"emancipation", "Emancipation Day", time.August, 1},
	{"independence", "Independence Day", time.August, 31},
	{"republic-day", "Republic Day", time.September, 24},
	{"christmas", "Christmas Day", time.December, 25},
	{"boxing-day", "Boxing Day", time.December, 26},
}

// HolidayID returns the deterministic id of a seeded holiday.
func HolidayID(slug string, year int) string {
	return fmt.Sprintf("%s-%s-%d", constants.HolidayIDPrefix, slug, year)
}

// Generate builds the public holidays of Trinidad and Tobago for year, sorted
// by date. Fixed holidays are always present; the Easter-relative ones are
// dropped (and logged) if the feast computation fails.
func Generate(year int, loc *time.Location) []models.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}

	events := make([]models.CalendarEvent, 0, len(fixedHolidays)+6)
	for _, h := range fixedHolidays {
		events = append(events, holiday(h.slug, h.title, time.Date(year, h.month, h.day, 0, 0, 0, 0, loc), year))
	}

	feasts, err := MovableFeasts(year, loc)
	if err != nil {
		logger.Warn("Skipping movable holidays", "year", year, "error", err)
	} else {
		events = append(events,
			holiday("carnival-monday", "Carnival Monday", feasts.CarnivalMonday, year),
			holiday("carnival-tuesday", "Carnival Tuesday", feasts.CarnivalTuesday, year),
			holiday("ash-wednesday", "Ash Wednesday", feasts.AshWednesday, year),
			holiday("good-friday", "Good Friday", feasts.GoodFriday, year),
			holiday("easter-sunday", "Easter Sunday", feasts.EasterSunday, year),
			holiday("easter-monday", "Easter Monday", feasts.EasterMonday, year),
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

func holiday(slug, title string, date time.Time, year int) models.CalendarEvent {
	return models.CalendarEvent{
		ID:                HolidayID(slug, year),
		Title:             title,
		Date:              date,
		Type:              constants.EventHoliday,
		IsTrinidadHoliday: true,
		Year:              year,
		Color:             constants.ColorHoliday,
	}
}
