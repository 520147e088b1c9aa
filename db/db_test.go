package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='state'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected state table, got %d", count)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if err := InitSchema(context.Background(), db, SQLite); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	snaps := NewSnapshotStore(db, SQLite)

	payload, err := snaps.Load(ctx, "deals")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected nil payload for unsaved bucket, got %q", payload)
	}

	if err := snaps.Save(ctx, "deals", []byte(`{"next_id":1}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := snaps.Save(ctx, "deals", []byte(`{"next_id":2}`)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	payload, err = snaps.Load(ctx, "deals")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(payload) != `{"next_id":2}` {
		t.Errorf("expected latest payload, got %q", payload)
	}

	buckets, err := snaps.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if len(buckets) != 1 || buckets[0] != "deals" {
		t.Errorf("unexpected buckets %v", buckets)
	}
}

func TestRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crm.db")

	db, err := OpenDatabase(path)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	deals, err := store.Open[models.Deal, *models.Deal](ctx, "deals", "Deal", store.WithPersister(NewSnapshotStore(db, SQLite)))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	created, err := deals.Create(ctx, models.Deal{Company: "Acme", DealValue: 5000, Stage: models.StageLead, ExpectedCloseDate: models.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_ = db.Close()

	db, err = OpenDatabase(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	deals, err = store.Open[models.Deal, *models.Deal](ctx, "deals", "Deal", store.WithPersister(NewSnapshotStore(db, SQLite)))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	got, err := deals.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen failed: %v", err)
	}
	if got.Company != "Acme" || got.ExpectedCloseDate.String() != "2025-01-01" {
		t.Errorf("unexpected deal after reopen: %+v", got)
	}
}

func TestPostgresSnapshotStore(t *testing.T) {
	dsn := os.Getenv("CRMDESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CRMDESK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer db.Close()

	snaps := NewSnapshotStore(db, Postgres)
	if err := snaps.Save(ctx, "pg_test", []byte(`{}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	payload, err := snaps.Load(ctx, "pg_test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(payload) != `{}` {
		t.Errorf("unexpected payload %q", payload)
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
