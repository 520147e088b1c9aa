// ABOUTME: Application configuration stored at XDG paths with environment overrides
// ABOUTME: Selects the storage backend, stage policy, logging level and device identity
package config

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
)

const AppName = "crmdesk"

// DefaultCharmHost is the self-hosted 2389 research server.
const DefaultCharmHost = "charm.2389.dev"

// Backend names where entity snapshots are kept.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"
)

type Config struct {
	Backend       string  `json:"backend"`
	DBPath        string  `json:"db_path"`
	PostgresDSN   string  `json:"postgres_dsn,omitempty"`
	FixturesDir   string  `json:"fixtures_dir,omitempty"`
	LogLevel      string  `json:"log_level"`
	StagePolicy   string  `json:"stage_policy"`
	Latency       bool    `json:"latency"`
	MonthlyTarget float64 `json:"monthly_target"`
	User          string  `json:"user"`
	DeviceID      string  `json:"device_id"`
	Charm         Charm   `json:"charm"`
}

// Charm holds the remote KV settings used by the charm backend.
type Charm struct {
	Host     string `json:"host"`
	AutoSync bool   `json:"auto_sync"`
	// StaleThreshold is how old the last sync may be before a read pulls
	// remote changes first. Zero uses the charm default.
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
}

// Dir returns the XDG data directory for the application.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func Path() string {
	return filepath.Join(Dir(), "config.json")
}

func Default() *Config {
	return &Config{
		Backend:       BackendSQLite,
		DBPath:        filepath.Join(Dir(), "crmdesk.db"),
		LogLevel:      "info",
		StagePolicy:   "strict",
		MonthlyTarget: 100000,
		User:          "Current User",
		Charm:         Charm{Host: DefaultCharmHost, AutoSync: true},
	}
}

// Load reads the config file, falling back to defaults when it does not
// exist. Environment variables override file values:
// - CRMDESK_BACKEND
// - CRMDESK_DB_PATH
// - CRMDESK_POSTGRES_DSN
// - CRMDESK_FIXTURES
// - CRMDESK_LOG_LEVEL
// - CRMDESK_STAGE_POLICY
// - CRMDESK_LATENCY
// - CRMDESK_MONTHLY_TARGET
// - CRMDESK_USER
// - CRMDESK_CHARM_HOST.
func Load() (*Config, error) {
	cfg := Default()

	f, err := os.Open(Path())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CRMDESK_BACKEND"); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CRMDESK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CRMDESK_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("CRMDESK_FIXTURES"); v != "" {
		cfg.FixturesDir = v
	}
	if v := os.Getenv("CRMDESK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CRMDESK_STAGE_POLICY"); v != "" {
		cfg.StagePolicy = v
	}
	if v := os.Getenv("CRMDESK_LATENCY"); v != "" {
		cfg.Latency = v == "on" || v == "true" || v == "1"
	}
	if v := os.Getenv("CRMDESK_MONTHLY_TARGET"); v != "" {
		target, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CRMDESK_MONTHLY_TARGET %q: %w", v, err)
		}
		cfg.MonthlyTarget = target
	}
	if v := os.Getenv("CRMDESK_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("CRMDESK_CHARM_HOST"); v != "" {
		cfg.Charm.Host = v
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite, BackendCharm:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres backend requires a DSN")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MonthlyTarget < 0 {
		return fmt.Errorf("monthly target must not be negative")
	}
	if c.Charm.StaleThreshold < 0 {
		return fmt.Errorf("charm stale threshold must not be negative")
	}
	return nil
}

// Save writes the config with owner-only permissions.
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(Path(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// EnsureDeviceID assigns a device id on first use and reports whether one
// was generated.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = NewDeviceID()
	return true
}

// NewDeviceID generates a ULID for device identification.
func NewDeviceID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
