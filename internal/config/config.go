// Package config loads crm-comercios settings from a YAML file, a .env file
// and CRM_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultDirectoryPath = "proveedores_mvp.csv"
	defaultPort          = 8080
	defaultSessionTTL    = 12 * time.Hour
	defaultSheetName     = "Gestiones"
	defaultGeocoderURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent     = "crm-comercios/1.0"
	defaultCountry       = "ar"
)

// Config holds all runtime settings.
type Config struct {
	DBPath         string         `yaml:"db_path"`
	DirectoryPath  string         `yaml:"directory_path"`
	WatchDirectory bool           `yaml:"watch_directory"`
	Port           int            `yaml:"port"`
	DevMode        bool           `yaml:"dev_mode"`
	Managers       []string       `yaml:"managers"`
	SessionTTL     time.Duration  `yaml:"session_ttl"`
	Geocoder       GeocoderConfig `yaml:"geocoder"`
	Sheets         SheetsConfig   `yaml:"sheets"`
}

// GeocoderConfig configures the address lookup service.
type GeocoderConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	Country   string `yaml:"country"`
}

// SheetsConfig configures the spreadsheet audit export.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Sheet           string `yaml:"sheet"`
	CredentialsFile string `yaml:"credentials_file"`
}

// DefaultDBPath returns ~/.crm-comercios/gestiones.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".crm-comercios", "gestiones.db"), nil
}

// Default returns a config with every default applied.
func Default() Config {
	dbPath, err := DefaultDBPath()
	if err != nil {
		dbPath = "gestiones.db"
	}
	return Config{
		DBPath:        dbPath,
		DirectoryPath: defaultDirectoryPath,
		Port:          defaultPort,
		SessionTTL:    defaultSessionTTL,
		Geocoder: GeocoderConfig{
			BaseURL:   defaultGeocoderURL,
			UserAgent: defaultUserAgent,
			Country:   defaultCountry,
		},
		Sheets: SheetsConfig{Sheet: defaultSheetName},
	}
}

// Load builds the configuration. A missing .env is ignored; a missing YAML
// file is an error only when path was given explicitly.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.Sheets.Enabled {
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets export enabled without spreadsheet_id")
		}
		if c.Sheets.CredentialsFile == "" {
			return fmt.Errorf("sheets export enabled without credentials_file")
		}
	}
	return nil
}

// IsManager reports whether legajo is on the manager allow-list.
func (c Config) IsManager(legajo string) bool {
	for _, m := range c.Managers {
		if m == legajo {
			return true
		}
	}
	return false
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DBPath, "CRM_DB_PATH")
	setString(&cfg.DirectoryPath, "CRM_DIRECTORY_PATH")
	setString(&cfg.Geocoder.BaseURL, "CRM_GEOCODER_URL")
	setString(&cfg.Geocoder.UserAgent, "CRM_GEOCODER_USER_AGENT")
	setString(&cfg.Geocoder.Country, "CRM_GEOCODER_COUNTRY")
	setString(&cfg.Sheets.SpreadsheetID, "CRM_SHEETS_SPREADSHEET_ID")
	setString(&cfg.Sheets.Sheet, "CRM_SHEETS_SHEET")
	setString(&cfg.Sheets.CredentialsFile, "CRM_SHEETS_CREDENTIALS")

	if v := os.Getenv("CRM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing CRM_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("CRM_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing CRM_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("CRM_MANAGERS"); v != "" {
		cfg.Managers = splitList(v)
	}

	for key, dst := range map[string]*bool{
		"CRM_DEV_MODE":        &cfg.DevMode,
		"CRM_SHEETS_ENABLED":  &cfg.Sheets.Enabled,
		"CRM_WATCH_DIRECTORY": &cfg.WatchDirectory,
	} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
