// Package config holds the global flags shared by every command. Each flag
// can also come from the environment, and an optional .env file is read
// before flags are parsed.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitkeeper/internal/cloud"
	"github.com/julianstephens/habitkeeper/internal/keyring"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/storage/postgres"
	"github.com/julianstephens/habitkeeper/internal/utils"
)

// Store backends selectable with --store.
const (
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type Config struct {
	Store    string `help:"Document store backend." enum:"sqlite,postgres,firestore,memory" default:"sqlite" env:"HABITKEEPER_STORE"`
	DB       string `help:"SQLite database path." type:"path" default:"~/.config/habitkeeper/habitkeeper.db" env:"HABITKEEPER_DB"`
	DSN      string `help:"PostgreSQL connection string. Passwords must NOT be embedded; use PGPASSWORD, .pgpass or 'habitkeeper auth store-dsn'." env:"HABITKEEPER_DSN"`
	UID      string `help:"User id to act as, overriding the keyring session." env:"HABITKEEPER_UID"`
	Timezone string `help:"IANA timezone that decides where a day ends." default:"Local" env:"HABITKEEPER_TIMEZONE"`

	ConfigDir string `help:"Directory for logs and local state." type:"path" default:"~/.config/habitkeeper" env:"HABITKEEPER_CONFIG_DIR"`
	Debug     bool   `help:"Log debug output to stderr." env:"HABITKEEPER_DEBUG"`

	FirebaseProject     string  `help:"Firebase project id." env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentials string  `help:"Service account JSON file." type:"path" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseCredsBase64 string  `help:"Base64 encoded service account JSON." env:"FIREBASE_CREDENTIALS_BASE64"`
	FirestoreWriteHz    float64 `help:"Maximum Firestore writes per second." default:"1" env:"HABITKEEPER_FIRESTORE_WRITE_HZ"`

	MetricsAddr string `help:"Serve Prometheus metrics on this address (watch and tui only)." env:"HABITKEEPER_METRICS_ADDR"`
}

// LoadDotEnv reads KEY=VALUE pairs from the given files, or ./.env when none
// are named. Missing files are skipped and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		logger.Debug("Loaded environment file", "path", p)
	}
	return nil
}

// Normalize expands ~ in path settings. Kong does this for parsed flags;
// configs built in code need it too.
func (c *Config) Normalize() {
	c.DB = expand(c.DB)
	c.ConfigDir = expand(c.ConfigDir)
	c.FirebaseCredentials = expand(c.FirebaseCredentials)
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = StoreSQLite
	}
}

func expand(p string) string {
	if p == "" {
		return ""
	}
	return kong.ExpandPath(p)
}

// Validate is also run by kong after parsing.
func (c *Config) Validate() error {
	if _, err := utils.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.FirestoreWriteHz < 0 {
		return fmt.Errorf("firestore write rate must not be negative")
	}
	switch strings.ToLower(c.Store) {
	case "", StoreSQLite:
		if c.DB == "" {
			return fmt.Errorf("sqlite store requires --db")
		}
	case StorePostgres:
		if c.DSN != "" {
			if err := postgres.ValidateConnString(c.DSN); err != nil {
				if errors.Is(err, postgres.ErrEmbeddedCredentials) {
					return fmt.Errorf("%w; use PGPASSWORD, .pgpass or store the connection string in the OS keyring", err)
				}
				return err
			}
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// ResolveDSN returns the PostgreSQL connection string from the flag or
// environment, falling back to the keyring. A keyring value may carry a
// password since it never appears on the command line.
func (c *Config) ResolveDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	dsn, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("postgres store requires --dsn, HABITKEEPER_DSN or a connection string in the OS keyring")
		}
		return "", err
	}
	logger.Debug("Using PostgreSQL connection string from keyring")
	return dsn, nil
}

// Firebase returns the settings for the Firebase app.
func (c *Config) Firebase() cloud.Config {
	return cloud.Config{
		ProjectID:         c.FirebaseProject,
		CredentialsFile:   c.FirebaseCredentials,
		CredentialsBase64: c.FirebaseCredsBase64,
	}
}
