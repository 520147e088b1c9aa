// ABOUTME: Snapshot persister backed by the state table
// ABOUTME: Upserts one JSON payload per bucket and hydrates stores on open
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SnapshotStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSnapshotStore(db *sql.DB, dialect Dialect) *SnapshotStore {
	return &SnapshotStore{db: db, dialect: dialect}
}

func (s *SnapshotStore) query(sqlite, postgres string) string {
	if s.dialect == Postgres {
		return postgres
	}
	return sqlite
}

// Load returns nil, nil when the bucket has not been saved yet.
func (s *SnapshotStore) Load(ctx context.Context, bucket string) ([]byte, error) {
	q := s.query(
		`SELECT payload FROM state WHERE bucket = ?`,
		`SELECT payload FROM state WHERE bucket = $1`,
	)
	var payload []byte
	err := s.db.QueryRowContext(ctx, q, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bucket %s: %w", bucket, err)
	}
	return payload, nil
}

func (s *SnapshotStore) Save(ctx context.Context, bucket string, payload []byte) error {
	q := s.query(
		`INSERT INTO state(bucket, payload, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		`INSERT INTO state(bucket, payload, updated_at) VALUES($1, $2, $3)
		 ON CONFLICT(bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	)
	if _, err := s.db.ExecContext(ctx, q, bucket, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save bucket %s: %w", bucket, err)
	}
	return nil
}

// Buckets lists saved buckets in name order.
func (s *SnapshotStore) Buckets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket FROM state ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var buckets []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
