package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// IsURL reports whether connStr uses the postgres:// URL form.
func IsURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// withSearchPath pins the connection to the dtracker schema unless the
// caller already chose a search_path.
func withSearchPath(connStr string) string {
	if IsURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if hasDSNKey(connStr, "search_path") {
		return connStr
	}
	return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
}

// hasDSNKey reports whether a key=value DSN sets key (case-insensitive).
func hasDSNKey(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(part, "=")
		if ok && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// hasSSLMode reports whether either connection string form sets sslmode.
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasDSNKey(connStr, "sslmode")
}

// ValidateConnString checks that connStr is a usable PostgreSQL URL or DSN
// and that it carries no password. Passwords belong in the keyring,
// .pgpass or PGPASSWORD.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if IsURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, set := u.User.Password(); set {
			return false, ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return true, nil
	}

	if hasDSNKey(connStr, "password") {
		return false, ErrEmbeddedCredentials
	}
	return true, nil
}

// connectHint adds the sslmode hint to the common "SSL is not enabled" failure.
func connectHint(connStr string, err error) error {
	if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(connStr) {
		return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
	}
	return fmt.Errorf("failed to connect to database: %w", err)
}
