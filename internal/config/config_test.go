package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/config"
	"catalog/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.local
  user: importer
  password: s3cret
  name: ebuyer
history:
  enabled: true
  path: /var/lib/catalog/history.db
log:
  verbose: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, domain.DefaultProductTable, cfg.Database.Table)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/var/lib/catalog/history.db", cfg.History.HistoryPath())
	assert.True(t, cfg.Log.Verbose)

	conn := cfg.Database.Connection()
	assert.Equal(t, domain.DatabaseDriverMySQL, conn.Driver)
	assert.Equal(t, "ebuyer", conn.Database)
	assert.Equal(t, "importer", conn.Username)
	assert.Equal(t, domain.DefaultProductTable, conn.TableName())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "database: [unclosed"},
		{"missing host", "database:\n  name: ebuyer\n"},
		{"unknown driver", "database:\n  driver: oracle\n  host: h\n  name: n\n"},
		{"sqlite without path", "database:\n  driver: sqlite\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, config.ErrConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestLoad_PostgresDefaultPort(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "database:\n  driver: postgres\n  host: pg\n  name: ebuyer\n"))
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db.local\n  name: ebuyer\n  user: importer\n")
	t.Setenv("CATALOG_DB_HOST", "db.prod")
	t.Setenv("CATALOG_DB_PORT", "3307")
	t.Setenv("CATALOG_DB_USER", "loader")
	t.Setenv("CATALOG_DB_PASS", "from-env")
	t.Setenv("CATALOG_DB_TABLE", "tblproductdata_staging")

	cfg, err := config.LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "db.prod", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "loader", cfg.Database.User)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "tblproductdata_staging", cfg.Database.Table)
	assert.Equal(t, "ebuyer", cfg.Database.Name)
}

func TestLoadFromEnv_DriverSetsDefaultPort(t *testing.T) {
	path := writeConfig(t, "database:\n  host: pg.local\n  name: ebuyer\n")
	t.Setenv("CATALOG_DB_DRIVER", "postgres")

	cfg, err := config.LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadFromEnv_HostAndNameFromEnv(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: mysql\n")
	t.Setenv("CATALOG_DB_HOST", "db.env")
	t.Setenv("CATALOG_DB_NAME", "ebuyer")

	cfg, err := config.LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "db.env", cfg.Database.Host)
	assert.Equal(t, "ebuyer", cfg.Database.Name)
	assert.Equal(t, 3306, cfg.Database.Port)
}

func TestLoadFromEnv_StillValidates(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: mysql\n")
	t.Setenv("CATALOG_DB_HOST", "db.env")

	_, err := config.LoadFromEnv(path)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestLoadHistory_SkipsDatabaseValidation(t *testing.T) {
	cfg, err := config.LoadHistory(writeConfig(t, "history:\n  enabled: true\n  path: /tmp/h.db\n"))
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/h.db", cfg.History.HistoryPath())

	_, err = config.LoadHistory(writeConfig(t, "history: [unclosed"))
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestLoadFromEnv_BadPort(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db.local\n  name: ebuyer\n")
	t.Setenv("CATALOG_DB_PORT", "not-a-port")

	_, err := config.LoadFromEnv(path)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestLoadFromEnv_PasswordSecret(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db.local\n  name: ebuyer\n  password_secret: dbpass\n")
	t.Setenv("CATALOG_SECRET_DBPASS", "from-secret")

	cfg, err := config.LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.Database.Password)
}

func TestLoadFromEnv_PasswordSecretMissing(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db.local\n  name: ebuyer\n  password_secret: nothere_xyz\n")

	_, err := config.LoadFromEnv(path)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestHistoryPath_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".catalog", "history.db"), config.HistoryConfig{}.HistoryPath())
}
