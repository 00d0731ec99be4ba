// Package config holds the buffsim server configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the simulation server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Simulation
	TickRate    float64 `yaml:"tick_rate"` // logical ticks per second
	CatalogPath string  `yaml:"catalog_path"`
	LogLevel    string  `yaml:"log_level"`

	// Persistence (optional)
	Persist  bool           `yaml:"persist"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns a Server config with sensible defaults.
func Default() Server {
	return Server{
		BindAddress: "127.0.0.1",
		Port:        8080,
		TickRate:    20,
		CatalogPath: "config/catalog.yaml",
		LogLevel:    "info",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "statfx",
			Password: "statfx",
			DBName:   "statfx",
			SSLMode:  "disable",
		},
	}
}

// Load reads a Server config from a YAML file, applying defaults for
// absent fields.
func Load(path string) (Server, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
