// ABOUTME: Connection settings for the Charm KV backend
// ABOUTME: Derived from the application config, which owns the config file

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/crmdesk/config"
)

// AppName names the Charm KV database.
const AppName = config.AppName

// Config holds charm connection settings.
type Config struct {
	Host     string
	AutoSync bool
	// StaleThreshold is how long after the last sync a snapshot read pulls
	// remote changes first.
	StaleThreshold time.Duration
}

// ConfigFrom fills charm settings from the application config, applying
// defaults for anything left empty.
func ConfigFrom(cfg *config.Config) *Config {
	c := &Config{
		Host:           cfg.Charm.Host,
		AutoSync:       cfg.Charm.AutoSync,
		StaleThreshold: cfg.Charm.StaleThreshold,
	}
	if c.Host == "" {
		c.Host = config.DefaultCharmHost
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = kv.DefaultStaleThreshold
	}
	return c
}
