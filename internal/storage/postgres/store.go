package postgres

import (
	"fmt"
	"io/fs"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	pq "github.com/lib/pq"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/migration"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/migrations"
)

// Store is the shared provider. Changes reach subscribers through
// LISTEN/NOTIFY, so writes from other processes are delivered too.
type Store struct {
	*storage.SQLStore
	connStr string
	loc     *time.Location
	broker  *storage.Broker

	listenOnce sync.Once
	listener   *pq.Listener
	done       chan struct{}
}

func New(connStr string, loc *time.Location) *Store {
	return &Store{
		connStr: withSearchPath(connStr),
		loc:     loc,
		broker:  storage.NewBroker(),
		done:    make(chan struct{}),
	}
}

// newWithDB wraps an already open connection.
func newWithDB(db *sqlx.DB, loc *time.Location) *Store {
	s := New("", loc)
	s.SQLStore = storage.NewSQLStore(db, sq.Dollar, loc, nil)
	return s
}

func (s *Store) open() (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (s *Store) Init() error {
	db, err := s.open()
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return connectHint(s.connStr, err)
	}
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	// publishing happens in the listener, not on write
	s.SQLStore = storage.NewSQLStore(db, sq.Dollar, s.loc, nil)

	if _, err := s.Migrate(func(msg string) { logger.Info(msg, "store", "postgres") }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.SQLStore != nil {
		return nil
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return connectHint(s.connStr, err)
	}
	s.SQLStore = storage.NewSQLStore(db, sq.Dollar, s.loc, nil)

	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.DB(), sub), nil
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
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

func (s *Store) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logger.Warn("Failed to close change listener", "error", err)
		}
	}
	s.broker.Close()
	if s.SQLStore == nil {
		return nil
	}
	err := s.DB().Close()
	s.SQLStore = nil
	return err
}

// Subscribe starts the change listener on first use.
func (s *Store) Subscribe(collection string, fn func(models.Change)) func() {
	s.listenOnce.Do(func() {
		if err := s.startListener(); err != nil {
			logger.Error("Failed to start change listener", "error", err)
		}
	})
	return s.broker.Subscribe(collection, fn)
}

func (s *Store) GetConfigPath() string {
	// Return a non-sensitive identifier instead of the full connection string
	return "postgresql"
}
