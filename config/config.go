// Package config resolves the lend settings from command-line flags, the
// environment, a .env file and defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"library-lending/library"
	"library-lending/logger"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LEND_"

// Config holds the application configuration.
type Config struct {
	Storage  StorageConfig
	Logger   LoggerConfig
	Currency string
}

// StorageConfig locates the library data.
type StorageConfig struct {
	DataDir      string
	Backend      string
	CatalogFile  string
	LedgerFile   string
	DatabaseFile string
	PhotosDir    string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string
}

// Flags carries the values given on the command line. Empty means unset.
type Flags struct {
	DataDir   string
	Backend   string
	EnvFile   string
	LogLevel  string
	LogFormat string
	Currency  string
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (LEND_*).
// 3. .env file.
// 4. Default values (lowest priority).
func Load(f Flags) (*Config, error) {
	envFile := f.EnvFile
	if envFile == "" {
		envFile = getConfigValue("", "ENV_FILE", ".env")
	}
	// A missing .env file is fine; existing variables are never overridden.
	_ = godotenv.Load(envFile)

	cfg := &Config{
		Storage: StorageConfig{
			DataDir:      getConfigValue(f.DataDir, "DATA_DIR", "data"),
			Backend:      strings.ToLower(getConfigValue(f.Backend, "BACKEND", library.BackendFiles)),
			CatalogFile:  getConfigValue("", "CATALOG_FILE", "bibliotheque.json"),
			LedgerFile:   getConfigValue("", "LEDGER_FILE", "emprunt.csv"),
			DatabaseFile: getConfigValue("", "DATABASE_FILE", "library.db"),
			PhotosDir:    getConfigValue("", "PHOTOS_DIR", "photos"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(f.LogLevel, "LOG_LEVEL", "info"),
			Format: strings.ToLower(getConfigValue(f.LogFormat, "LOG_FORMAT", logger.FormatText)),
		},
		Currency: strings.ToUpper(getConfigValue(f.Currency, "CURRENCY", library.DefaultCurrency)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case library.BackendFiles, library.BackendSQLite:
	default:
		return fmt.Errorf("invalid backend %q: want %q or %q", c.Storage.Backend, library.BackendFiles, library.BackendSQLite)
	}
	switch c.Logger.Format {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: want %q or %q", c.Logger.Format, logger.FormatText, logger.FormatJSON)
	}
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("unknown currency %q", c.Currency)
	}
	return nil
}

// Path resolves name against the data directory unless it is absolute.
func (s StorageConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.DataDir, name)
}

// StoreConfig returns the locations of every backend's files.
func (s StorageConfig) StoreConfig(backend string) library.StoreConfig {
	return library.StoreConfig{
		Backend:      backend,
		CatalogPath:  s.Path(s.CatalogFile),
		LedgerPath:   s.Path(s.LedgerFile),
		DatabasePath: s.Path(s.DatabaseFile),
	}
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}
