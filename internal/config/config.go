// Package config loads the importer configuration: target database
// credentials, the local run-history store and logging options.
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

	"catalog/internal/domain"
	"catalog/internal/secret"
)

// ErrConfig reports a missing, unreadable or invalid configuration file.
// It aborts a run before anything is persisted.
var ErrConfig = errors.New("configuration error")

// DefaultPath is where the configuration file is looked up by default.
const DefaultPath = "config/catalog.yaml"

// Config holds all configuration for the importer.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the target store connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | postgres | sqlite
	Host     string `yaml:"host"`   // hostname, or file path for sqlite
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Table    string `yaml:"table"`
	SSLMode  string `yaml:"sslmode"`

	// PasswordSecret names a secret looked up in SecretStore ("env" or
	// "keychain") when Password is empty.
	PasswordSecret string `yaml:"password_secret"`
	SecretStore    string `yaml:"secret_store"`
}

// HistoryConfig controls the local run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

// Connection converts the database settings into a DatabaseConnection.
func (c DatabaseConfig) Connection() *domain.DatabaseConnection {
	return &domain.DatabaseConnection{
		Driver:   domain.DatabaseDriver(c.Driver),
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Name,
		Username: c.User,
		SSLMode:  c.SSLMode,
		Table:    c.Table,
	}
}

// HistoryPath returns the history database path with a leading ~ expanded.
func (c HistoryConfig) HistoryPath() string {
	p := c.Path
	if p == "" {
		p = "~/.catalog/history.db"
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads a .env file if present, reads path, and applies
// CATALOG_DB_* environment overrides before defaults and validation.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	if err := cfg.Database.resolvePassword(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadHistory reads path for the commands that only touch the local run
// history. The target database section is not validated.
func LoadHistory(path string) (*Config, error) {
	return read(path)
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %s", ErrConfig, path, err)
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.setDefaults()
	return c.validate()
}

func (c *DatabaseConfig) applyEnv() error {
	if v := os.Getenv("CATALOG_DB_DRIVER"); v != "" {
		c.Driver = v
	}
	if v := os.Getenv("CATALOG_DB_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("CATALOG_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CATALOG_DB_PORT: %s", ErrConfig, err)
		}
		c.Port = port
	}
	if v := os.Getenv("CATALOG_DB_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("CATALOG_DB_PASS"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("CATALOG_DB_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("CATALOG_DB_TABLE"); v != "" {
		c.Table = v
	}
	return nil
}

func (c *DatabaseConfig) resolvePassword() error {
	if c.Password != "" || c.PasswordSecret == "" {
		return nil
	}
	store, err := secret.Open(c.SecretStore)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfig, err)
	}
	v, err := store.Get(c.PasswordSecret)
	if err != nil {
		return fmt.Errorf("%w: read secret %q: %s", ErrConfig, c.PasswordSecret, err)
	}
	if v == nil {
		return fmt.Errorf("%w: secret %q not found", ErrConfig, c.PasswordSecret)
	}
	c.Password = string(v)
	return nil
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = string(domain.DatabaseDriverMySQL)
	}
	if c.Database.Table == "" {
		c.Database.Table = domain.DefaultProductTable
	}
	if c.Database.Port == 0 {
		switch domain.DatabaseDriver(c.Database.Driver) {
		case domain.DatabaseDriverMySQL:
			c.Database.Port = 3306
		case domain.DatabaseDriverPostgres:
			c.Database.Port = 5432
		}
	}
}

func (c *Config) validate() error {
	switch domain.DatabaseDriver(c.Database.Driver) {
	case domain.DatabaseDriverMySQL, domain.DatabaseDriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("%w: database host and name are required", ErrConfig)
		}
	case domain.DatabaseDriverSQLite:
		if c.Database.Host == "" && c.Database.Name == "" {
			return fmt.Errorf("%w: sqlite needs a file path in database.host", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrConfig, c.Database.Driver)
	}
	return nil
}
