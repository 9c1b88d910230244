package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"library-catalog/library"
)

// Config is the shell's runtime configuration. Environment variables (and an
// optional .env file) provide defaults; command-line flags override them.
type Config struct {
	SeedPath   string
	AuditDB    string
	LogLevel   string
	LogFormat  string
	LoanDays   int
	FinePerDay int
	Digital    bool
}

// loadEnv reads .env from the working directory when one exists.
func loadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// defaultConfig builds a Config from LIBRARY_* environment variables.
func defaultConfig() Config {
	return Config{
		SeedPath:   os.Getenv("LIBRARY_SEED"),
		AuditDB:    os.Getenv("LIBRARY_AUDIT_DB"),
		LogLevel:   envOr("LIBRARY_LOG_LEVEL", "warn"),
		LogFormat:  envOr("LIBRARY_LOG_FORMAT", "text"),
		LoanDays:   envInt("LIBRARY_LOAN_DAYS", int(library.DefaultLoanPeriod/(24*time.Hour))),
		FinePerDay: envInt("LIBRARY_FINE_PER_DAY", library.DefaultFinePerDay),
		Digital:    envBool("LIBRARY_DIGITAL", false),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

// bindFlags registers the persistent flags, using cfg's current values as defaults.
func (cfg *Config) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&cfg.SeedPath, "seed", cfg.SeedPath, "JSON seed file (defaults to the built-in ten books)")
	flags.StringVar(&cfg.AuditDB, "audit-db", cfg.AuditDB, "SQLite file for the audit journal (in memory when empty)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text, json or zap")
	flags.IntVar(&cfg.LoanDays, "loan-days", cfg.LoanDays, "loan period in days")
	flags.IntVar(&cfg.FinePerDay, "fine-per-day", cfg.FinePerDay, "late fee per day")
	flags.BoolVar(&cfg.Digital, "digital", cfg.Digital, "allow digital books in the catalog")
}

func (cfg Config) ledger() library.Ledger {
	return library.Ledger{
		LoanPeriod: time.Duration(cfg.LoanDays) * 24 * time.Hour,
		FinePerDay: cfg.FinePerDay,
	}
}

func (cfg Config) seed() ([]library.SeedEntry, error) {
	if cfg.SeedPath == "" {
		return library.DefaultSeed()
	}
	return library.LoadSeedFile(cfg.SeedPath)
}

// newLogger builds the logger described by cfg, writing to w. The text and
// json formats use slog; zap selects the zap JSON encoder.
func (cfg Config) newLogger(w io.Writer) (library.Logger, error) {
	format := strings.ToLower(cfg.LogFormat)
	if format == "zap" {
		return newZapLogger(w, cfg.LogLevel)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
}
