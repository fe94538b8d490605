package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
)

const stampLayout = "20060102-150405"

// requiredTables must exist in a file before it is accepted as a backup.
var requiredTables = []string{"employees", "tasks", "calendar_events"}

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	seq       int
}

// Name returns the file name of the backup.
func (b BackupInfo) Name() string {
	return filepath.Base(b.Path)
}

// Manager handles snapshots of the SQLite database
type Manager struct {
	dbPath    string
	backupDir string
	keep      int
	now       func() time.Time
}

// NewManager creates a backup manager that stores snapshots in a directory
// next to the database.
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:      constants.MaxBackups,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for backup names.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots the database and prunes old backups.
func (m *Manager) CreateBackup() (string, error) {
	path, err := m.snapshot()
	if err != nil {
		return "", err
	}
	if err := m.rotateBackups(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) snapshot() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}

	db, err := sqlx.Open("sqlite", m.dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := checkSchema(db); err != nil {
		return "", fmt.Errorf("refusing to back up %s: %w", m.dbPath, err)
	}
	// VACUUM INTO folds the WAL into a single consistent file
	if _, err := db.Exec("VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}

	logger.Info("Created backup", "path", path)
	return path, nil
}

// nextPath picks an unused file name for the current time, adding a counter
// when several backups land in the same second.
func (m *Manager) nextPath() (string, error) {
	stamp := m.now().Format(stampLayout)
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		name := fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, counter, constants.BackupFileSuffix)
		path = filepath.Join(m.backupDir, name)
	}
}

// ListBackups returns all backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, seq, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.After(backups[j].Timestamp)
		}
		return backups[i].seq > backups[j].seq
	})
	return backups, nil
}

// parseName extracts the timestamp and collision counter from a backup
// file name.
func parseName(name string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, 0, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	seq := 0
	if len(stamp) > len(stampLayout) && stamp[len(stampLayout)] == '-' {
		n, err := strconv.Atoi(stamp[len(stampLayout)+1:])
		if err != nil {
			return time.Time{}, 0, false
		}
		seq, stamp = n, stamp[:len(stampLayout)]
	}
	ts, err := time.ParseInLocation(stampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return ts, seq, true
}

// Find resolves a backup by file name or path.
func (m *Manager) Find(name string) (string, error) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		return name, nil
	}
	path := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup %s not found in %s", name, m.backupDir)
	}
	return path, nil
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		logger.Debug("Removed old backup", "path", backups[i].Path)
	}
	return nil
}

// RestoreBackup replaces the database with a backup. The current database
// is snapshotted first, without rotation, so a restore can be undone. The
// store must be closed while this runs.
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := verifyBackup(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.dbPath); err == nil {
		if previous, err = m.snapshot(); err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	// stale WAL frames would be replayed over the restored file
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			_ = os.Remove(tempPath)
			return "", fmt.Errorf("failed to remove %s file: %w", suffix, err)
		}
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return "", fmt.Errorf("failed to restore database: %w", err)
	}

	logger.Info("Restored backup", "from", backupPath, "previous", previous)
	return previous, nil
}

func verifyBackup(path string) error {
	db, err := sqlx.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return checkSchema(db)
}

// checkSchema makes sure the file is a dtracker database.
func checkSchema(db *sqlx.DB) error {
	query, args, err := sqlx.In("SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?)", requiredTables)
	if err != nil {
		return err
	}
	var found []string
	if err := db.Select(&found, query, args...); err != nil {
		return err
	}
	if len(found) != len(requiredTables) {
		return fmt.Errorf("missing tables: found %v, want %v", found, requiredTables)
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
