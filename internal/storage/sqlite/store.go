package sqlite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/migration"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/migrations"
)

const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Store is the local single-file provider. Writes made through this process
// are published to subscribers after they commit.
type Store struct {
	*storage.SQLStore
	path   string
	loc    *time.Location
	broker *storage.Broker
}

func NewStore(path string, loc *time.Location) *Store {
	return &Store{
		path:   path,
		loc:    loc,
		broker: storage.NewBroker(),
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.open(); err != nil {
		return err
	}
	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.SQLStore != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'dtracker init' first")
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func (s *Store) open() error {
	if s.SQLStore != nil {
		return nil
	}
	db, err := sqlx.Open("sqlite", s.path+pragmas)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.SQLStore = storage.NewSQLStore(db, sq.Question, s.loc, s.broker.Publish)
	return nil
}

func (s *Store) Close() error {
	s.broker.Close()
	if s.SQLStore == nil {
		return nil
	}
	err := s.DB().Close()
	s.SQLStore = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.DB(), sub), nil
}

func (s *Store) runMigrations() error {
	_, err := s.Migrate(func(msg string) {
		logger.Info(msg, "store", "sqlite")
	})
	return err
}

// SchemaVersion returns the applied and the latest known schema versions.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	if s.SQLStore == nil {
		return 0, 0, fmt.Errorf("database not loaded")
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	latest, err = runner.GetLatestVersion()
	return current, latest, err
}

// Migrate applies pending migrations and returns how many ran.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

func (s *Store) Subscribe(collection string, fn func(models.Change)) func() {
	return s.broker.Subscribe(collection, fn)
}

func (s *Store) GetConfigPath() string {
	return s.path
}
