package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/dtracker/internal/constants"
)

const (
	EnvDatabase = "DTRACKER_DB"
	EnvTimezone = "DTRACKER_TIMEZONE"
	EnvDebug    = "DTRACKER_DEBUG"

	DefaultRefreshSchedule = "0 5 0 * * *"
	DefaultSeedSchedule    = "0 0 1 1 1 *"
)

type Config struct {
	Database string `yaml:"database"`
	Timezone string `yaml:"timezone"`
	Debug    bool   `yaml:"debug"`

	Refresh struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"refresh"`

	Holidays struct {
		YearsAhead   int    `yaml:"years_ahead"`
		SeedSchedule string `yaml:"seed_schedule"`
	} `yaml:"holidays"`

	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`

	// databaseSet records whether the file or environment named a database
	databaseSet bool
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Database = constants.DefaultConfigPath
	cfg.Timezone = "Local"
	cfg.Refresh.Schedule = DefaultRefreshSchedule
	cfg.Holidays.YearsAhead = 1
	cfg.Holidays.SeedSchedule = DefaultSeedSchedule
	cfg.Export.Dir = "."
	return cfg
}

// Load reads the YAML file at path (a missing file is not an error), expands
// ${VAR} references against the environment, and applies DTRACKER_*
// environment overrides. A .env file next to the config file, or in the
// working directory, is loaded first without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := Default()

	path = ExpandHome(path)
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))
	loadDotEnv(".env")

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		content := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.databaseSet = cfg.Database != "" && cfg.Database != constants.DefaultConfigPath
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = def.Refresh.Schedule
	}
	if c.Holidays.SeedSchedule == "" {
		c.Holidays.SeedSchedule = def.Holidays.SeedSchedule
	}
	if c.Holidays.YearsAhead < 0 {
		c.Holidays.YearsAhead = 0
	}
	if c.Export.Dir == "" {
		c.Export.Dir = def.Export.Dir
	}
	c.Database = ExpandHome(c.Database)
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c Config) Save(path string) error {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// HasDatabase reports whether the file or environment chose a database
// other than the default SQLite path.
func (c Config) HasDatabase() bool {
	return c.databaseSet
}

// IsPostgres reports whether the database setting is a PostgreSQL URL.
func (c Config) IsPostgres() bool {
	return strings.HasPrefix(c.Database, "postgres://") || strings.HasPrefix(c.Database, "postgresql://")
}

// ConfigDir returns the directory holding logs and backups.
func (c Config) ConfigDir() string {
	if c.IsPostgres() {
		return ExpandHome(constants.DefaultConfigDir)
	}
	return filepath.Dir(c.Database)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}
