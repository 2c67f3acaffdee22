package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygrate/pkg/pgcopy"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tables = []TableConfig{
		{
			Name: "users",
			Columns: []ColumnConfig{
				{Name: "id", Type: "int64"},
				{Name: "email", Type: "text"},
			},
		},
	}
	return cfg
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mysql:
  host: db.internal
  database: legacy
  user: reader
postgres:
  database: modern
  max_pool_size: 4
migrate:
  parallelism: 3
tables:
  - name: users
    columns:
      - {name: id, type: int64}
      - {name: created_at, type: timestamptz}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 3306, cfg.MySQL.Port) // default survives partial override
	assert.Equal(t, "legacy", cfg.MySQL.Database)
	assert.Equal(t, "modern", cfg.Postgres.Database)
	assert.Equal(t, 4, cfg.Postgres.MaxPoolSize)
	assert.Equal(t, 3, cfg.Migrate.Parallelism)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "users", cfg.Tables[0].Name)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables: {not a list"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad mysql port", func(c *Config) { c.MySQL.Port = 0 }, "mysql port"},
		{"bad postgres port", func(c *Config) { c.Postgres.Port = 70000 }, "postgres port"},
		{"bad pool size", func(c *Config) { c.Postgres.MaxPoolSize = 0 }, "max_pool_size"},
		{"negative parallelism", func(c *Config) { c.Migrate.Parallelism = -1 }, "parallelism"},
		{"no tables", func(c *Config) { c.Tables = nil }, "no tables"},
		{"unnamed table", func(c *Config) { c.Tables[0].Name = "" }, "empty name"},
		{"no columns", func(c *Config) { c.Tables[0].Columns = nil }, "no columns"},
		{"unnamed column", func(c *Config) { c.Tables[0].Columns[0].Name = "" }, "empty name"},
		{"unknown type", func(c *Config) { c.Tables[0].Columns[0].Type = "varchar2" }, "unknown column type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTableDescriptors(t *testing.T) {
	tables, err := validConfig().TableDescriptors()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, []pgcopy.Column{
		{Name: "id", Type: pgcopy.Int64},
		{Name: "email", Type: pgcopy.Text},
	}, tables[0].Columns)
}
