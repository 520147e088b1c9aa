// ABOUTME: Charm KV client wrapper with automatic and staleness-driven sync
// ABOUTME: One process-wide client, opened once with the application's charm settings

package charm

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/crmdesk/config"
)

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// kvStore is the subset of charm/kv.KV the client relies on.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client wraps charm KV with config and sync helpers.
type Client struct {
	kv       kvStore
	config   *Config
	local    bool
	now      func() time.Time
	lastSync time.Time
	mu       sync.RWMutex
}

// GetClient returns the process-wide client, opening it with cfg on the
// first call. Later calls ignore cfg.
func GetClient(cfg *Config) (*Client, error) {
	clientOnce.Do(func() {
		globalClient, clientErr = NewClient(cfg)
	})
	if clientErr != nil {
		return nil, clientErr
	}
	if globalClient == nil {
		return nil, fmt.Errorf("client not initialized")
	}
	return globalClient, nil
}

// NewClient opens the charm KV database for this app.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = ConfigFrom(config.Default())
	}

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{kv: db, config: cfg, now: time.Now}

	// Pull remote changes on startup; offline use falls back to local data.
	if cfg.AutoSync {
		_ = c.Sync()
	}

	return c, nil
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	if c.local {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncLocked()
}

func (c *Client) syncLocked() error {
	if err := c.kv.Sync(); err != nil {
		return err
	}
	c.lastSync = c.now()
	return nil
}

// LastSync reports when the last successful sync finished.
func (c *Client) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// SyncIfStale syncs when auto-sync is on and the last sync is older than
// the stale threshold. It reports whether a sync ran.
func (c *Client) SyncIfStale() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.config.AutoSync || c.now().Sub(c.lastSync) < c.config.StaleThreshold {
		return false, nil
	}
	return true, c.syncLocked()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get(key)
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Push while still holding the lock so writes reach the server in order.
	if c.config.AutoSync {
		_ = c.syncLocked()
	}
	return nil
}

// Keys returns all keys.
func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	allKeys, err := c.Keys()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes all data from the KV store (use with caution!)
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}
