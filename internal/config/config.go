// Package config loads SheetPlan settings from a JSON file with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application-wide settings.
type Config struct {
	DBPath    string `json:"db_path"`
	LogLevel  string `json:"log_level"`  // debug, info, warn, error
	LogFormat string `json:"log_format"` // text, json

	// RankWorkers bounds parallel stock size evaluation, 0 = GOMAXPROCS
	RankWorkers int `json:"rank_workers"`

	// MaterialUnitCost prices a sheet when neither the stock size nor the
	// material has a price. Empty means unpriced.
	MaterialUnitCost string `json:"material_unit_cost,omitempty"`

	ReportDir string `json:"report_dir"`
}

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.sheetplan/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sheetplan")
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	dir := DefaultConfigDir()
	return Config{
		DBPath:    filepath.Join(dir, "sheetplan.db"),
		LogLevel:  "info",
		LogFormat: "text",
		ReportDir: filepath.Join(dir, "reports"),
	}
}

// Load reads the config at path, falling back to defaults when the file does
// not exist, then applies environment overrides. A .env file in the working
// directory is loaded first if present; it never replaces variables that are
// already set.
func Load(path string) (Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DBPath = getEnv("SHEETPLAN_DB_PATH", cfg.DBPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.RankWorkers = getEnvInt("SHEETPLAN_RANK_WORKERS", cfg.RankWorkers)
	cfg.MaterialUnitCost = getEnv("SHEETPLAN_MATERIAL_UNIT_COST", cfg.MaterialUnitCost)
	cfg.ReportDir = getEnv("SHEETPLAN_REPORT_DIR", cfg.ReportDir)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.RankWorkers < 0 {
		return fmt.Errorf("rank_workers must not be negative, got %d", c.RankWorkers)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.UnitCost(); err != nil {
		return err
	}
	return nil
}

// UnitCost parses MaterialUnitCost. It returns nil when unset.
func (c Config) UnitCost() (*decimal.Decimal, error) {
	if strings.TrimSpace(c.MaterialUnitCost) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.MaterialUnitCost))
	if err != nil {
		return nil, fmt.Errorf("material_unit_cost %q: %w", c.MaterialUnitCost, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("material_unit_cost must not be negative, got %s", d)
	}
	return &d, nil
}

// Save persists the config to path as JSON.
// It creates any missing parent directories automatically.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
