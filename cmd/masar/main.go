// Package main implements the masar binary: service and event bookkeeping on
// the configured database, plus normative-type table wrapping for scripts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/masar/masar/internal/app"
	"github.com/masar/masar/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile string
		dataDir    string
		dbDriver   string
		dbDSN      string
		showHelp   bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for local data files")
	flag.StringVar(&dbDriver, "db-driver", "", "Database driver: sqlite3, mysql, postgres")
	flag.StringVar(&dbDSN, "db-dsn", "", "Database connection string (overrides other database settings)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if showHelp || len(args) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Printf("masar version %s (commit: %s)\n", version, commit)
		return
	case "nt":
		if err := runNT(rest); err != nil {
			log.Fatalf("nt: %v", err)
		}
		return
	}

	cfg, err := loadConfig(configFile, dataDir, dbDriver, dbDSN)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx := context.Background()
	if err := application.Open(ctx); err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer application.Close()

	switch cmd {
	case "init":
		err = application.InitSchema(ctx)
		if err == nil {
			log.Printf("Schema initialized on %s", application.Config().Database.Redacted())
		}
	case "service":
		err = runService(ctx, application, rest)
	case "config":
		err = runConfig(ctx, application, rest)
	case "event":
		err = runEvent(ctx, application, rest)
	default:
		flag.Usage()
		application.Close()
		os.Exit(2)
	}

	if err != nil {
		application.Close()
		log.Fatalf("%s: %v", cmd, err)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, dbDriver, dbDSN string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}

	return cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, "masar - service event log and normative-type tables\n\n")
	fmt.Fprintf(os.Stderr, "Usage: masar [options] <command> [command options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  init                          Create the service, service_config and service_event tables\n")
	fmt.Fprintf(os.Stderr, "  service add|list              Register or list services\n")
	fmt.Fprintf(os.Stderr, "  config add|list               Register or list service configs\n")
	fmt.Fprintf(os.Stderr, "  event save|list|table         Record events, list them, or print them as an NTTable\n")
	fmt.Fprintf(os.Stderr, "  nt table                      Wrap JSON rows into an NTTable\n")
	fmt.Fprintf(os.Stderr, "  version                       Show version information\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  masar init\n")
	fmt.Fprintf(os.Stderr, "  masar event save -service masar1 -config \"orbit C01\" -comment golden\n")
	fmt.Fprintf(os.Stderr, "  masar nt table -columns x:d,name:s -rows rows.json\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  MASAR_DATA_DIR              Base directory for data files\n")
	fmt.Fprintf(os.Stderr, "  MASAR_DB_DRIVER             Database driver (sqlite3, mysql, postgres)\n")
	fmt.Fprintf(os.Stderr, "  MASAR_DB_DSN                Database connection string\n")
	fmt.Fprintf(os.Stderr, "  MASAR_EVENTS_STRICT_TABLE   Reject ragged event rows\n")
	fmt.Fprintf(os.Stderr, "  MASAR_CODEC_COMPRESS        Snappy-compress encoded values\n")
}
