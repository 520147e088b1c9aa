// ABOUTME: Store persister that keeps entity snapshots in charm KV
// ABOUTME: One key per bucket under the snapshot: prefix, synced like any other key
package charm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

const snapshotPrefix = "snapshot:"

type Persister struct {
	client *Client
}

func NewPersister(c *Client) *Persister {
	return &Persister{client: c}
}

func snapshotKey(bucket string) []byte {
	return []byte(snapshotPrefix + bucket)
}

// Load returns nil, nil when the bucket has no snapshot yet. A stale local
// copy is refreshed from the server first; when the server is unreachable
// the local copy is served.
func (p *Persister) Load(ctx context.Context, bucket string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, _ = p.client.SyncIfStale()
	payload, err := p.client.Get(snapshotKey(bucket))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", bucket, err)
	}
	return payload, nil
}

func (p *Persister) Save(ctx context.Context, bucket string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.client.Set(snapshotKey(bucket), payload); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", bucket, err)
	}
	return nil
}

// Buckets lists the buckets that have a saved snapshot.
func (p *Persister) Buckets() ([]string, error) {
	keys, err := p.client.KeysWithPrefix([]byte(snapshotPrefix))
	if err != nil {
		return nil, err
	}
	buckets := make([]string, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, strings.TrimPrefix(string(k), snapshotPrefix))
	}
	return buckets, nil
}
