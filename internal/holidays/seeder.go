package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
)

// Store is the part of the storage provider the seeder needs.
type Store interface {
	HasHolidaysForYear(ctx context.Context, year int) (bool, error)
	InsertHolidays(ctx context.Context, events []models.CalendarEvent) error
	QueryEvents(ctx context.Context, q storage.EventQuery) ([]models.CalendarEvent, error)
}

// Seeder writes a year's holidays to the store the first time that year is viewed.
type Seeder struct {
	store Store
	loc   *time.Location
}

func NewSeeder(store Store, loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.Local
	}
	return &Seeder{store: store, loc: loc}
}

// Seed makes sure the holidays for year exist and returns them. If the year
// is already seeded the stored set is returned unchanged. The insert ignores
// ids that already exist, so two seeders racing on the same year are harmless.
func (s *Seeder) Seed(ctx context.Context, year int) ([]models.CalendarEvent, error) {
	seeded, err := s.store.HasHolidaysForYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to check holidays for %d: %w", year, err)
	}

	if !seeded {
		events := Generate(year, s.loc)
		if err := s.store.InsertHolidays(ctx, events); err != nil {
			return nil, fmt.Errorf("failed to seed holidays for %d: %w", year, err)
		}
		logger.Info("Seeded holidays", "year", year, "count", len(events))
	}

	return s.store.QueryEvents(ctx, storage.EventQuery{Year: year, HolidaysOnly: true})
}

// SeedRange seeds every year in [from, to].
func (s *Seeder) SeedRange(ctx context.Context, from, to int) error {
	for year := from; year <= to; year++ {
		if _, err := s.Seed(ctx, year); err != nil {
			return err
		}
	}
	return nil
}
