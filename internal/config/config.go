package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ageorm/model"
)

const (
	DriverPgx = "pgx"
	DriverPq  = "pq"
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Graph    string         `yaml:"graph"`
	Schema   string         `yaml:"schema"`

	dir string
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	cfg.Database.DSN = os.ExpandEnv(strings.TrimSpace(cfg.Database.DSN))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPgx
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 1
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	switch cfg.Database.Driver {
	case DriverPgx, DriverPq:
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxConns < 0 || cfg.Database.MinConns < 0 {
		return fmt.Errorf("connection limits must not be negative")
	}
	if cfg.Database.MinConns > cfg.Database.MaxConns {
		return fmt.Errorf("min_conns %d exceeds max_conns %d", cfg.Database.MinConns, cfg.Database.MaxConns)
	}
	if cfg.Graph != "" && !model.ValidName(cfg.Graph) {
		return fmt.Errorf("invalid graph name: %s", cfg.Graph)
	}
	return nil
}

// SchemaPath resolves the schema file against the config's directory. It is
// empty when no schema is configured.
func (c *ProjectConfig) SchemaPath() string {
	if c.Schema == "" || filepath.IsAbs(c.Schema) {
		return c.Schema
	}
	return filepath.Join(c.dir, c.Schema)
}
