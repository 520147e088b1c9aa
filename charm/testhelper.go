// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses temporary directories with BadgerDB for test isolation

package charm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// testKV wraps BadgerDB to provide the same interface as charm/kv.KV
// for testing without requiring server connectivity.
type testKV struct {
	db    *badger.DB
	syncs int
}

func (t *testKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (t *testKV) Set(key, value []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (t *testKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (t *testKV) Sync() error {
	t.syncs++
	return nil
}

func (t *testKV) Reset() error {
	return t.db.DropAll()
}

// NewTestClient creates a charm client backed by BadgerDB in a temp directory.
// Cleanup is registered on t.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), AppName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		t.Fatalf("Failed to create data dir: %v", err)
	}

	// Suppress badger logs in tests
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return &Client{
		kv:     &testKV{db: db},
		config: &Config{Host: "localhost", AutoSync: false},
		local:  true,
		now:    time.Now,
	}
}
