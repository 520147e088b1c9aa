// ABOUTME: Application wiring shared by the CLI and the MCP server
// ABOUTME: Opens the configured backend, hydrates stores, seeds fixtures and builds services
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/crmdesk/charm"
	"github.com/harperreed/crmdesk/config"
	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/db"
	"github.com/harperreed/crmdesk/events"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/seed"
	"github.com/harperreed/crmdesk/store"
	"github.com/harperreed/crmdesk/telemetry"
	"go.uber.org/zap"
)

// Simulated backend latency when enabled in config.
const (
	LatencyMin = 150 * time.Millisecond
	LatencyMax = 400 * time.Millisecond
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Service   *crm.Service
	Metrics   *metrics.Service
	Telemetry *telemetry.Metrics
	Charm     *charm.Client
	Out       io.Writer

	database *sql.DB
}

type openOptions struct {
	persister store.Persister
	charm     *charm.Client
	out       io.Writer
	telemetry *telemetry.Metrics
}

type OpenOption func(*openOptions)

// WithPersister bypasses the configured backend.
func WithPersister(p store.Persister) OpenOption { return func(o *openOptions) { o.persister = p } }
func WithCharmClient(c *charm.Client) OpenOption { return func(o *openOptions) { o.charm = c } }
func WithOutput(w io.Writer) OpenOption          { return func(o *openOptions) { o.out = w } }
func WithTelemetry(m *telemetry.Metrics) OpenOption {
	return func(o *openOptions) { o.telemetry = m }
}

// Open builds the application for cfg. The memory backend is seeded with
// the embedded fixtures; any backend is seeded from cfg.FixturesDir when set.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...OpenOption) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeviceID != "" {
		logger = logger.With(zap.String("device_id", cfg.DeviceID))
	}
	o := openOptions{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	policy, err := models.ParseTransitionPolicy(cfg.StagePolicy)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Telemetry: o.telemetry,
		Charm:     o.charm,
		Out:       o.out,
	}
	persister := o.persister
	if persister == nil {
		if persister, err = app.openBackend(ctx); err != nil {
			return nil, err
		}
	}

	storeOpts := []store.Option{store.WithObserver(app.Telemetry)}
	if cfg.Latency {
		storeOpts = append(storeOpts, store.WithLatency(LatencyMin, LatencyMax))
	}
	outboxOpts := []events.Option{events.WithMetrics(app.Telemetry), events.WithOrigin(cfg.DeviceID)}

	var repos crm.Repos
	if persister != nil {
		storeOpts = append(storeOpts, store.WithPersister(persister))
		outboxOpts = append(outboxOpts, events.WithPersister(persister))
		if repos, err = crm.OpenRepos(ctx, storeOpts...); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to load stores: %w", err)
		}
	} else {
		repos = crm.NewMemoryRepos(storeOpts...)
	}

	if err := app.seed(ctx, repos); err != nil {
		app.Close()
		return nil, err
	}

	app.Service, err = crm.New(ctx, repos,
		crm.WithPolicy(policy),
		crm.WithLogger(logger.Named("crm")),
		crm.WithUser(cfg.User),
		crm.WithOutboxOptions(outboxOpts...),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Metrics = metrics.NewService(app.Service.MetricsSources(),
		metrics.WithMonthlyTarget(cfg.MonthlyTarget),
		metrics.WithLogger(logger.Named("metrics")),
		metrics.WithFailureRecorder(app.Telemetry),
	)
	return app, nil
}

// openBackend returns nil for the memory backend.
func (a *App) openBackend(ctx context.Context) (store.Persister, error) {
	switch a.Config.Backend {
	case config.BackendMemory:
		return nil, nil
	case config.BackendSQLite:
		database, err := db.OpenDatabase(a.Config.DBPath)
		if err != nil {
			return nil, err
		}
		a.database = database
		a.Logger.Debug("opened sqlite backend", zap.String("path", a.Config.DBPath))
		return db.NewSnapshotStore(database, db.SQLite), nil
	case config.BackendPostgres:
		database, err := db.OpenPostgres(ctx, a.Config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.database = database
		return db.NewSnapshotStore(database, db.Postgres), nil
	case config.BackendCharm:
		if a.Charm == nil {
			c, err := charm.GetClient(charm.ConfigFrom(a.Config))
			if err != nil {
				return nil, err
			}
			a.Charm = c
		}
		return charm.NewPersister(a.Charm), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
	}
}

func (a *App) seed(ctx context.Context, repos crm.Repos) error {
	var report seed.Report
	var err error
	switch {
	case a.Config.FixturesDir != "":
		report, err = seed.LoadDir(ctx, a.Config.FixturesDir, repos, a.Logger)
	case a.Config.Backend == config.BackendMemory:
		report, err = seed.Load(ctx, seed.Fixtures(), repos, a.Logger)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}
	for bucket, n := range report {
		a.Logger.Debug("seeded fixtures", zap.String("bucket", bucket), zap.Int("records", n))
	}
	return nil
}

func (a *App) Close() {
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
		a.database = nil
	}
}
