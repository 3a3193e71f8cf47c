package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("file values and defaults", func(t *testing.T) {
		path := writeConfig(t, `
database:
  timescaledb:
    host: db.internal
    user: seed
    dbname: market
import:
  file: HINDALCO_1D.xlsx
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		require.Equal(t, "db.internal", cfg.Database.TimescaleDB.Host)
		require.Equal(t, 5432, cfg.Database.TimescaleDB.Port)
		require.Equal(t, "disable", cfg.Database.TimescaleDB.SSLMode)
		require.Equal(t, "HINDALCO_1D.xlsx", cfg.Import.File)
		require.Equal(t, ModeCheck, cfg.Import.Mode)
		require.Equal(t, DefaultInstrument, cfg.Import.DefaultInstrument)
		require.Equal(t, "8080", cfg.API.Port)
		require.Equal(t, "host=db.internal port=5432 user=seed password= dbname=market sslmode=disable", cfg.DSN())
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeConfig(t, `
database:
  timescaledb:
    port: 5432
import:
  mode: check
`)
		t.Setenv("DB_PORT", "5438")
		t.Setenv("IMPORT_MODE", ModeForce)
		t.Setenv("IMPORT_DEFAULT_INSTRUMENT", "NIFTY")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 5438, cfg.Database.TimescaleDB.Port)
		require.Equal(t, ModeForce, cfg.Import.Mode)
		require.Equal(t, "NIFTY", cfg.Import.DefaultInstrument)
	})

	t.Run("unknown mode", func(t *testing.T) {
		path := writeConfig(t, "import:\n  mode: upsert\n")
		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "upsert")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_ENV", "prod")
	require.Equal(t, "configs/prod/app.yaml", GetDefaultConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/seed.yaml")
	require.Equal(t, "/etc/seed.yaml", GetDefaultConfigPath())
}
