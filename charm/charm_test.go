package charm

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/crmdesk/config"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersisterMissingBucket(t *testing.T) {
	p := NewPersister(NewTestClient(t))

	payload, err := p.Load(context.Background(), "contacts")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)
	p := NewPersister(c)

	require.NoError(t, p.Save(ctx, "tasks", []byte(`{"next_id":3}`)))
	payload, err := p.Load(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, `{"next_id":3}`, string(payload))

	buckets, err := p.Buckets()
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, buckets)
}

func TestStoreOnCharm(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(NewTestClient(t))

	quotes, err := store.Open[models.Quote, *models.Quote](ctx, "quotes", "Quote", store.WithPersister(p))
	require.NoError(t, err)
	created, err := quotes.Create(ctx, models.Quote{Company: "Acme", Amount: 100, Status: models.QuoteDraft})
	require.NoError(t, err)

	reopened, err := store.Open[models.Quote, *models.Quote](ctx, "quotes", "Quote", store.WithPersister(p))
	require.NoError(t, err)
	got, err := reopened.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
}

func TestKeysWithPrefixAndReset(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte("snapshot:a"), []byte("1")))
	require.NoError(t, c.Set([]byte("other"), []byte("2")))

	keys, err := c.KeysWithPrefix([]byte("snapshot:"))
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, c.Reset())
	keys, err = c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSyncStatusCommand(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, NewPersister(c).Save(context.Background(), "deals", []byte(`{}`)))

	var out bytes.Buffer
	require.NoError(t, SyncStatusCommand(c, &out, nil))
	assert.Contains(t, out.String(), "Connected (local)")
	assert.Contains(t, out.String(), "- deals")
	assert.Contains(t, out.String(), "Last sync: never")
}

func TestSyncWipeRequiresConfirm(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte("k"), []byte("v")))

	var out bytes.Buffer
	require.NoError(t, SyncWipeCommand(c, &out, nil))
	keys, _ := c.Keys()
	assert.Len(t, keys, 1)

	require.NoError(t, SyncWipeCommand(c, &out, []string{"--confirm"}))
	keys, _ = c.Keys()
	assert.Empty(t, keys)
}

func TestLoadSyncsWhenStale(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)
	backend := c.kv.(*testKV)
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	c.config.AutoSync = true
	c.config.StaleThreshold = time.Hour
	p := NewPersister(c)

	_, err := p.Load(ctx, "deals")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.syncs)
	assert.Equal(t, clock, c.LastSync())

	clock = clock.Add(10 * time.Minute)
	_, err = p.Load(ctx, "deals")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.syncs)

	clock = clock.Add(time.Hour)
	_, err = p.Load(ctx, "deals")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.syncs)
}

func TestNoStaleSyncWithoutAutoSync(t *testing.T) {
	c := NewTestClient(t)
	synced, err := c.SyncIfStale()
	require.NoError(t, err)
	assert.False(t, synced)
	assert.Zero(t, c.kv.(*testKV).syncs)
}

func TestConfigFromAppliesDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Charm = config.Charm{}
	c := ConfigFrom(cfg)
	assert.Equal(t, config.DefaultCharmHost, c.Host)
	assert.Equal(t, kv.DefaultStaleThreshold, c.StaleThreshold)

	cfg.Charm = config.Charm{Host: "charm.example.com", AutoSync: true, StaleThreshold: time.Minute}
	c = ConfigFrom(cfg)
	assert.Equal(t, "charm.example.com", c.Host)
	assert.True(t, c.AutoSync)
	assert.Equal(t, time.Minute, c.StaleThreshold)
}
