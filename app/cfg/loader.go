package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port string `long:"port" env:"PORT" default:"5000" description:"HTTP server port"`

	// Source and store configuration
	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML source table; the built-in table is used when the file is missing"`
	Store       string `long:"store" env:"STORE" default:"memory" choice:"memory" choice:"sqlite" description:"Article store backend"`
	SQLiteDSN   string `long:"sqlite-dsn" env:"SQLITE_DSN" description:"SQLite DSN for the sqlite store (defaults to an in-memory database)"`

	// Aggregation configuration
	AggregationMode string        `long:"aggregation-mode" env:"AGGREGATION_MODE" default:"shuffled" choice:"shuffled" choice:"recency" description:"Ordering applied before the article cap"`
	MaxArticles     int           `long:"max-articles" env:"MAX_ARTICLES" default:"50" description:"Maximum number of articles kept per refresh"`
	FetchTimeout    time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s" description:"Default per-source fetch timeout"`
	RefreshCron     string        `long:"refresh-cron" env:"REFRESH_CRON" default:"*/30 * * * *" description:"Cron schedule for background refreshes (empty disables)"`
	StartupDelay    time.Duration `long:"startup-delay" env:"STARTUP_DELAY" default:"1s" description:"Delay before the first refresh after startup"`

	// Static generation
	Generate  bool   `long:"generate" env:"GENERATE" description:"Write static JSON files to the public directory and exit"`
	PublicDir string `long:"public-dir" env:"PUBLIC_DIR" default:"./public" description:"Output directory for static JSON files"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newsdeck/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps and the refresh schedule (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads an optional .env file, then flags and environment variables.
// It returns nil without error when help was requested.
func Load() (*Cfg, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: failed to load .env file: %v\n", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:            raw.Port,
		SourcesFile:     raw.SourcesFile,
		Store:           raw.Store,
		SQLiteDSN:       raw.SQLiteDSN,
		AggregationMode: raw.AggregationMode,
		MaxArticles:     raw.MaxArticles,
		FetchTimeout:    raw.FetchTimeout,
		RefreshCron:     raw.RefreshCron,
		StartupDelay:    raw.StartupDelay,
		Generate:        raw.Generate,
		PublicDir:       raw.PublicDir,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	nonNegativeFields := map[string]int{
		"max-articles": cfg.MaxArticles,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	positiveDurations := map[string]time.Duration{
		"fetch-timeout": cfg.FetchTimeout,
	}

	for fieldName, fieldValue := range positiveDurations {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if cfg.StartupDelay < 0 {
		return fmt.Errorf("startup-delay must be non-negative")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
