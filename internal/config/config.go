// Package config provides configuration for the masar tools.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for masar.
type Config struct {
	// DataDir is the base directory for local data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Events configuration
	Events EventsConfig `json:"events" yaml:"events"`

	// Codec configuration
	Codec CodecConfig `json:"codec" yaml:"codec"`
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	// Driver is the SQL driver: sqlite3, mysql, postgres
	Driver string `json:"driver" yaml:"driver"`

	// Path is the database file (sqlite3 only)
	Path string `json:"path" yaml:"path"`

	// Host is the database server host (mysql, postgres)
	Host string `json:"host" yaml:"host"`

	// Port is the database server port; 0 selects the driver default
	Port int `json:"port" yaml:"port"`

	// User is the database user
	User string `json:"user" yaml:"user"`

	// Password is the database password
	Password string `json:"password" yaml:"password"`

	// Name is the database name
	Name string `json:"name" yaml:"name"`

	// SSLMode is passed to postgres as sslmode; "require" enables TLS for mysql
	SSLMode string `json:"sslmode" yaml:"sslmode"`

	// DSN overrides every other connection field when set
	DSN string `json:"dsn" yaml:"dsn"`
}

// EventsConfig holds event query and presentation settings.
type EventsConfig struct {
	// DefaultWindow is how far back an event query looks when no start is given
	DefaultWindow time.Duration `json:"default_window" yaml:"default_window"`

	// StrictTable rejects ragged rows when events are rendered as a table
	StrictTable bool `json:"strict_table" yaml:"strict_table"`
}

// CodecConfig holds value serialization settings.
type CodecConfig struct {
	// Compress enables Snappy compression of encoded values
	Compress bool `json:"compress" yaml:"compress"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/masar",
		Database: DatabaseConfig{
			Driver: "sqlite3",
		},
		Events: EventsConfig{
			DefaultWindow: 7 * 24 * time.Hour,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/masar"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.Driver == "sqlite3" && c.Database.Path == "" && c.Database.DSN == "" {
		c.Database.Path = filepath.Join(c.DataDir, "masar.db")
	}
	if c.Events.DefaultWindow <= 0 {
		c.Events.DefaultWindow = 7 * 24 * time.Hour
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" && c.Database.DSN == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "mysql", "postgres":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Name == "") {
			return fmt.Errorf("database.host and database.name are required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3, mysql, or postgres)", c.Database.Driver)
	}

	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 0 and 65535, got %d", c.Database.Port)
	}

	return nil
}

// DSN builds the driver connection string.
func (d DatabaseConfig) DSN() string {
	if d.DSN != "" {
		return d.DSN
	}

	switch d.Driver {
	case "mysql":
		port := d.Port
		if port == 0 {
			port = 3306
		}
		// Format: user:password@tcp(host:port)/dbname?parseTime=true
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
			d.User, d.Password, d.Host, port, d.Name,
		)
		if d.SSLMode == "require" {
			dsn += "&tls=true"
		}
		return dsn
	case "postgres":
		port := d.Port
		if port == 0 {
			port = 5432
		}
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, port, d.User, d.Password, d.Name, sslMode,
		)
	default:
		return d.Path + "?_foreign_keys=on&_busy_timeout=5000"
	}
}

// Redacted returns the DSN with the password masked, for logging.
func (d DatabaseConfig) Redacted() string {
	dsn := d.DSN()
	if d.Password == "" {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "****")
				return u.String()
			}
		}
		return dsn
	}
	return strings.ReplaceAll(dsn, d.Password, "****")
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the MASAR_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MASAR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Database configuration
	if v := os.Getenv("MASAR_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MASAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MASAR_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MASAR_DB_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Database.Port)
	}
	if v := os.Getenv("MASAR_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MASAR_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MASAR_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MASAR_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Events configuration
	if v := os.Getenv("MASAR_EVENTS_DEFAULT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Events.DefaultWindow = d
		}
	}
	if v := os.Getenv("MASAR_EVENTS_STRICT_TABLE"); v != "" {
		cfg.Events.StrictTable = v == "true" || v == "1"
	}

	// Codec configuration
	if v := os.Getenv("MASAR_CODEC_COMPRESS"); v != "" {
		cfg.Codec.Compress = v == "true" || v == "1"
	}
}

// EnsureDirectories creates the data directory and the sqlite database's
// parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Database.Driver == "sqlite3" && c.Database.Path != "" && c.Database.Path != ":memory:" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
