package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		// PredictRate is the per-client token refill rate for /predict, per second.
		PredictRate  float64 `yaml:"predictRate"`
		PredictBurst int     `yaml:"predictBurst"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		// DSN overrides the discrete fields below when set.
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Model struct {
		// Path is the local artifact, or the download cache when ObjectKey is set.
		Path      string `yaml:"path"`
		ObjectKey string `yaml:"objectKey"`
		// Watch reloads Path when it changes on disk.
		Watch bool `yaml:"watch"`
	} `yaml:"model"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Audit struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
	} `yaml:"audit"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Default config; a missing file leaves these in place.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 30 * time.Second
	c.Server.CORSOrigins = []string{"*"}
	c.Server.PredictRate = 10
	c.Server.PredictBurst = 20

	c.Database.Driver = DriverSQLite
	c.Database.Path = "data/phishy.db"
	c.Database.SSLMode = "disable"
	c.Database.Migrate = true

	c.Model.Path = "models/phishing_model.json"
	c.Audit.Enabled = true
	c.Audit.Dir = "."
	c.Log.Level = "info"
	return &c
}

// Load reads .env (if present), the YAML file at path (if present), then
// applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_URI", &c.Database.DSN)
	str("DB_HOST", &c.Database.Host)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)
	str("DB_PATH", &c.Database.Path)
	str("MODEL_PATH", &c.Model.Path)
	str("MODEL_OBJECT_KEY", &c.Model.ObjectKey)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.BucketName)
	str("AUDIT_DIR", &c.Audit.Dir)
	str("LOG_LEVEL", &c.Log.Level)

	ints := map[string]*int{
		"PORT":    &c.Server.Port,
		"DB_PORT": &c.Database.Port,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"DB_MIGRATE":    &c.Database.Migrate,
		"AUDIT_ENABLED": &c.Audit.Enabled,
		"LOG_PRETTY":    &c.Log.Pretty,
		"MINIO_USE_SSL": &c.Minio.UseSSL,
		"MODEL_WATCH":   &c.Model.Watch,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the fields the process cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("database: %s needs dsn or host", c.Database.Driver)
		}
	case DriverSQLite:
		if c.SQLitePath() == "" {
			return errors.New("database: sqlite needs path")
		}
	default:
		return fmt.Errorf("database: unknown driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Model.ObjectKey != "" && c.Minio.Endpoint == "" {
		return errors.New("model: objectKey needs minio.endpoint")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		portOr(c.Database.Port, 3306),
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq URL.
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, portOr(c.Database.Port, 5432)),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// SQLitePath accepts a sqlite:// URI in DSN as well as a plain path.
func (c *Config) SQLitePath() string {
	if c.Database.DSN != "" {
		return strings.TrimPrefix(strings.TrimPrefix(c.Database.DSN, "sqlite://"), "file:")
	}
	return c.Database.Path
}

// Addr listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func portOr(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}
