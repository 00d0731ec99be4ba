package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, 8080, cfg.Port)
	assert.InDelta(t, 20.0, cfg.TickRate, 1e-9)
	assert.False(t, cfg.Persist)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, "config/catalog.yaml", cfg.CatalogPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		DBName: "statfx", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5433/statfx?sslmode=disable", d.DSN())
}
