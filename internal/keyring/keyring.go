// Package keyring keeps the shared PostgreSQL connection string in the OS
// credential store, where it may carry a password.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/dtracker/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	ErrNotPostgres        = errors.New("not a PostgreSQL connection string")
)

// Entry addresses one secret in the OS keyring.
type Entry struct {
	Service string
	User    string
}

// Connection is where dtracker keeps the shared database connection string.
var Connection = Entry{Service: constants.AppName, User: constants.DefaultKeyringUser}

func (e Entry) Get() (string, error) {
	v, err := keyring.Get(e.Service, e.User)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return strings.TrimSpace(v), nil
}

func (e Entry) Set(v string) error {
	if err := keyring.Set(e.Service, e.User, v); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", e.User, err)
	}
	return nil
}

func (e Entry) Delete() error {
	err := keyring.Delete(e.Service, e.User)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("failed to delete %s from keyring: %w", e.User, err)
	}
	return nil
}

// looksLikePostgres accepts postgres:// URLs and key=value DSNs naming a host
// or database.
func looksLikePostgres(connStr string) bool {
	lower := strings.ToLower(connStr)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return true
	}
	return strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=")
}

func GetConnectionString() (string, error) {
	return Connection.Get()
}

// SetConnectionString stores connStr after trimming it. Anything that is not
// a PostgreSQL connection string is refused; SQLite paths go in the config.
func SetConnectionString(connStr string) error {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if !looksLikePostgres(connStr) {
		return ErrNotPostgres
	}
	return Connection.Set(connStr)
}

func DeleteConnectionString() error {
	return Connection.Delete()
}
