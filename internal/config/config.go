package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mygrate/pkg/migrate"
	"mygrate/pkg/pgcopy"
)

type Config struct {
	MySQL         MySQLConfig         `yaml:"mysql"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Migrate       MigrateConfig       `yaml:"migrate"`
	Observability ObservabilityConfig `yaml:"observability"`
	Tables        []TableConfig       `yaml:"tables"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type PostgresConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	SSLMode     string `yaml:"ssl_mode"`
	MaxPoolSize int    `yaml:"max_pool_size"`
}

type MigrateConfig struct {
	// Parallelism is the worker count; 0 means host parallelism.
	Parallelism     int  `yaml:"parallelism"`
	DisableTriggers bool `yaml:"disable_triggers"`
}

type ObservabilityConfig struct {
	MetricsPort int    `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

type TableConfig struct {
	Name    string         `yaml:"name"`
	Columns []ColumnConfig `yaml:"columns"`
}

type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func DefaultConfig() *Config {
	return &Config{
		MySQL: MySQLConfig{
			Host: "localhost",
			Port: 3306,
		},
		Postgres: PostgresConfig{
			Host:        "localhost",
			Port:        5432,
			SSLMode:     "prefer",
			MaxPoolSize: 16,
		},
		Migrate: MigrateConfig{
			Parallelism:     0,
			DisableTriggers: true,
		},
		Observability: ObservabilityConfig{
			MetricsPort: 9090,
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MySQL.Port < 1 || c.MySQL.Port > 65535 {
		return fmt.Errorf("invalid mysql port: %d", c.MySQL.Port)
	}

	if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.Postgres.Port)
	}

	if c.Postgres.MaxPoolSize < 1 {
		return fmt.Errorf("postgres max_pool_size must be at least 1")
	}

	if c.Migrate.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("no tables configured")
	}

	for _, table := range c.Tables {
		if table.Name == "" {
			return fmt.Errorf("table with empty name")
		}
		if len(table.Columns) == 0 {
			return fmt.Errorf("table %s has no columns", table.Name)
		}
		for _, col := range table.Columns {
			if col.Name == "" {
				return fmt.Errorf("table %s has a column with empty name", table.Name)
			}
			if _, err := pgcopy.ParseType(col.Type); err != nil {
				return fmt.Errorf("table %s column %s: %w", table.Name, col.Name, err)
			}
		}
	}

	return nil
}

// TableDescriptors resolves the configured tables into migration
// descriptors. Call Validate first; unknown types fail here too.
func (c *Config) TableDescriptors() ([]migrate.Table, error) {
	tables := make([]migrate.Table, 0, len(c.Tables))
	for _, tc := range c.Tables {
		columns := make([]pgcopy.Column, 0, len(tc.Columns))
		for _, cc := range tc.Columns {
			typ, err := pgcopy.ParseType(cc.Type)
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %w", tc.Name, cc.Name, err)
			}
			columns = append(columns, pgcopy.Column{Name: cc.Name, Type: typ})
		}
		tables = append(tables, migrate.Table{Name: tc.Name, Columns: columns})
	}
	return tables, nil
}
