// Package config loads process configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. Command-line flags override
// both (see cmd/server).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Port           int
	DBPath         string // "memory" = in-process store, no sqlite
	LogLevel       string
	LogFile        string // empty = stderr only
	LogJSON        bool
	SettingsFile   string
	CatalogFile    string
	MetricsEnabled bool
	Timezone       string
}

// Default values when nothing is set.
const (
	DefaultPort     = 8080
	DefaultDBPath   = "attendance.db"
	DefaultLogLevel = "info"
	DefaultTimezone = "UTC"
)

// Load reads the given .env files (".env" when none are given) and then the
// environment. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:           getEnvAsInt("PORT", DefaultPort),
		DBPath:         getEnv("DB_PATH", DefaultDBPath),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFile:        getEnv("LOG_FILE", ""),
		LogJSON:        getEnvAsBool("LOG_JSON", false),
		SettingsFile:   getEnv("SETTINGS_FILE", ""),
		CatalogFile:    getEnv("CATALOG_FILE", ""),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		Timezone:       getEnv("TIMEZONE", DefaultTimezone),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}
