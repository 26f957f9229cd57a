package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_ResolveAndValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()

	if cfg.Database.Path != filepath.Join("./data/masar", "masar.db") {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Events.DefaultWindow != 7*24*time.Hour {
		t.Errorf("default window = %v", cfg.Events.DefaultWindow)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"mysql without host", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"mysql with dsn", func(c *Config) { c.Database.Driver = "mysql"; c.Database.DSN = "u:p@tcp(h)/d" }, false},
		{"postgres", func(c *Config) { c.Database.Driver = "postgres"; c.Database.Host = "db"; c.Database.Name = "masar" }, false},
		{"bad port", func(c *Config) { c.Database.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	my := DatabaseConfig{Driver: "mysql", Host: "db", User: "masar", Password: "secret", Name: "masar"}
	if got := my.DSN(); got != "masar:secret@tcp(db:3306)/masar?parseTime=true&loc=UTC&charset=utf8mb4" {
		t.Errorf("mysql DSN = %q", got)
	}
	if strings.Contains(my.Redacted(), "secret") {
		t.Errorf("redacted DSN leaks password: %q", my.Redacted())
	}

	pg := DatabaseConfig{Driver: "postgres", Host: "db", User: "masar", Name: "masar"}
	if got := pg.DSN(); got != "host=db port=5432 user=masar password= dbname=masar sslmode=disable" {
		t.Errorf("postgres DSN = %q", got)
	}

	lite := DatabaseConfig{Driver: "sqlite3", Path: "/tmp/m.db"}
	if !strings.HasPrefix(lite.DSN(), "/tmp/m.db?") {
		t.Errorf("sqlite DSN = %q", lite.DSN())
	}

	override := DatabaseConfig{Driver: "mysql", DSN: "custom"}
	if override.DSN() != "custom" {
		t.Errorf("DSN override ignored")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "masar.yaml")
	yamlData := `
data_dir: /var/lib/masar
database:
  driver: postgres
  host: db.example
  name: masar
events:
  default_window: 48h
  strict_table: true
codec:
  compress: true
`
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.DataDir != "/var/lib/masar" || cfg.Database.Driver != "postgres" || cfg.Database.Host != "db.example" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Events.DefaultWindow != 48*time.Hour || !cfg.Events.StrictTable || !cfg.Codec.Compress {
		t.Errorf("events/codec = %+v %+v", cfg.Events, cfg.Codec)
	}

	jsonPath := filepath.Join(dir, "masar.json")
	if err := os.WriteFile(jsonPath, []byte(`{"database":{"driver":"mysql","dsn":"x"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromFile(json) failed: %v", err)
	}
	if cfg.Database.Driver != "mysql" || cfg.DataDir != "./data/masar" {
		t.Errorf("json cfg = %+v", cfg)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "masar.toml")); err == nil {
		t.Error("expected error for missing/unsupported file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MASAR_DB_DRIVER", "mysql")
	t.Setenv("MASAR_DB_PORT", "3307")
	t.Setenv("MASAR_EVENTS_DEFAULT_WINDOW", "1h")
	t.Setenv("MASAR_CODEC_COMPRESS", "1")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Database.Driver != "mysql" || cfg.Database.Port != 3307 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Events.DefaultWindow != time.Hour || !cfg.Codec.Compress {
		t.Errorf("events/codec = %+v %+v", cfg.Events, cfg.Codec)
	}
}
