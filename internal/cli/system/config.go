package system

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/dtracker/internal/cli"
	"github.com/julianstephens/dtracker/internal/keyring"
	"github.com/julianstephens/dtracker/internal/scheduler"
	"github.com/julianstephens/dtracker/internal/storage/postgres"
)

type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration." default:"1"`
	Set  ConfigSetCmd  `cmd:"" help:"Change a setting in the configuration file."`

	SetConnection    KeyringSetCmd    `cmd:"" name:"set-connection" help:"Store a PostgreSQL connection string in the OS keyring."`
	GetConnection    KeyringGetCmd    `cmd:"" name:"get-connection" help:"Show the keyring connection string (password masked)."`
	DeleteConnection KeyringDeleteCmd `cmd:"" name:"delete-connection" help:"Remove the connection string from the OS keyring."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	cfg.Database = maskPassword(cfg.Database)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Printf("# %s\n", ctx.ConfigFile)
	fmt.Print(string(data))
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Setting to change." enum:"database,timezone,debug,refresh.schedule,holidays.years_ahead,holidays.seed_schedule,export.dir"`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	switch c.Key {
	case "database":
		if postgres.IsURL(c.Value) {
			if _, err := postgres.ValidateConnString(c.Value); err != nil {
				return err
			}
		}
		cfg.Database = c.Value
	case "timezone":
		if _, err := time.LoadLocation(c.Value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Value, err)
		}
		cfg.Timezone = c.Value
	case "debug":
		v, err := strconv.ParseBool(c.Value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", c.Value)
		}
		cfg.Debug = v
	case "refresh.schedule", "holidays.seed_schedule":
		if err := scheduler.ValidateSpec(c.Value); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Value, err)
		}
		if c.Key == "refresh.schedule" {
			cfg.Refresh.Schedule = c.Value
		} else {
			cfg.Holidays.SeedSchedule = c.Value
		}
	case "holidays.years_ahead":
		n, err := strconv.Atoi(c.Value)
		if err != nil || n < 0 {
			return fmt.Errorf("years_ahead must be a non-negative integer")
		}
		cfg.Holidays.YearsAhead = n
	case "export.dir":
		cfg.Export.Dir = c.Value
	}

	if err := cfg.Save(ctx.ConfigFile); err != nil {
		return err
	}
	fmt.Printf("✓ %s updated in %s\n", c.Key, ctx.ConfigFile)
	return nil
}

// KeyringSetCmd stores the database connection string in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !postgres.IsURL(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Println("✓ Connection string stored successfully in OS keyring")
	fmt.Println("  dtracker will use it when no database is configured")
	return nil
}

// KeyringGetCmd prints the stored connection string with the password masked
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'dtracker config set-connection' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Println("Connection string retrieved from keyring:")
	fmt.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes the connection string from the OS keyring
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	fmt.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if postgres.IsURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil || u.User == nil {
			return connStr
		}
		if _, set := u.User.Password(); set {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			return strings.Replace(u.String(), "xxxxx", "****", 1)
		}
		return connStr
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
