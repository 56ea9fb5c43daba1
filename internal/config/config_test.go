package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/phishy.db", cfg.SQLitePath())
	assert.True(t, cfg.Database.Migrate)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load("testdata/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://extension.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2.5, cfg.Server.PredictRate)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "models/v3.json", cfg.Model.ObjectKey)
	assert.True(t, cfg.Model.Watch)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "phishy:s3cret@tcp(db.internal:3306)/phishy?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URI", "postgres://u:p@pg:5432/phishy?sslmode=disable")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("AUDIT_ENABLED", "true")

	cfg, err := Load("testdata/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@pg:5432/phishy?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN_FromFields(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = DriverPostgres
	cfg.Database.Host = "pg"
	cfg.Database.User = "phishy"
	cfg.Database.Password = "p@ss"
	cfg.Database.Name = "scans"
	assert.Equal(t, "postgres://phishy:p%40ss@pg:5432/scans?sslmode=disable", cfg.PostgresDSN())
}

func TestSQLitePath_FromURI(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "sqlite:///tmp/phishy.db"
	assert.Equal(t, "/tmp/phishy.db", cfg.SQLitePath())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown driver":    func(c *Config) { c.Database.Driver = "oracle" },
		"mysql no host":     func(c *Config) { c.Database.Driver = DriverMySQL },
		"bad port":          func(c *Config) { c.Server.Port = 70000 },
		"bucket no minio":   func(c *Config) { c.Model.ObjectKey = "m.json" },
		"sqlite empty path": func(c *Config) { c.Database.Path = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
