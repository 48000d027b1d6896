package run

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/database"
	"github.com/frain-dev/pgtime/database/postgres"
	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/catalog"
	"github.com/frain-dev/pgtime/internal/executor"
	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/internal/pkg/metrics"
	"github.com/frain-dev/pgtime/internal/scheduler"
	"github.com/frain-dev/pgtime/pkg/log"
)

func settingsFrom(cfg config.Configuration) (scheduler.Settings, error) {
	epoch, err := cfg.Maintenance.EpochTime()
	if err != nil {
		return scheduler.Settings{}, err
	}

	return scheduler.Settings{
		Interval:  cfg.Maintenance.Interval.Duration(),
		Lookahead: cfg.Maintenance.Lookahead,
		Epoch:     epoch,
		Workers:   cfg.Maintenance.Workers,
	}, nil
}

func newBackend(lo log.StdLogger, db database.Database, cfg config.Configuration) scheduler.Backend {
	var repo datastore.CatalogRepository = catalog.New(lo, db)
	if cfg.Maintenance.DryRun {
		repo = readOnlyCatalog{repo}
	}

	tx := postgres.NewPartitionTransactor(db, cfg.Maintenance.CompressionMethod, lo)
	gw := executor.New(lo, tx, executor.Options{
		OperationTimeout: cfg.Maintenance.OperationTimeout.Duration(),
		DryRun:           cfg.Maintenance.DryRun,
	})

	return scheduler.Backend{Catalog: repo, Gateway: gw}
}

func registerDBMetrics(db database.Database) {
	if pg, ok := db.(*postgres.Postgres); ok {
		metrics.RegisterDBMetrics(pg)
	}
}

// readOnlyCatalog keeps dry runs from recording last runs.
type readOnlyCatalog struct {
	datastore.CatalogRepository
}

func (readOnlyCatalog) MarkLastRun(context.Context, string, time.Time) error {
	return nil
}

// connection is the database currently used by the scheduler's backend.
type connection struct {
	mu sync.RWMutex
	db database.Database
}

func (c *connection) get() database.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *connection) set(db database.Database) {
	c.mu.Lock()
	c.db = db
	c.mu.Unlock()
}

func (c *connection) Ping(ctx context.Context) error {
	return c.get().Ping(ctx)
}

type reloader struct {
	app  *cli.App
	conn *connection
	dsn  string

	openDB func(cfg config.Configuration) (database.Database, error)
}

func newReloader(a *cli.App, cfg config.Configuration, conn *connection) *reloader {
	return &reloader{
		app:  a,
		conn: conn,
		dsn:  cfg.Database.Dsn,
		openDB: func(cfg config.Configuration) (database.Database, error) {
			return postgres.NewDB(cfg)
		},
	}
}

// reload re-reads the config file. A changed DSN opens a new connection and
// hands the scheduler a backend bound to it.
func (r *reloader) reload(ctx context.Context) (scheduler.Settings, error) {
	if err := config.LoadConfig(r.app.ConfigPath); err != nil {
		return scheduler.Settings{}, err
	}

	cfg, err := config.Get()
	if err != nil {
		return scheduler.Settings{}, err
	}

	settings, err := settingsFrom(cfg)
	if err != nil {
		return scheduler.Settings{}, err
	}

	if lvl, err := log.ParseLevel(cfg.Logger.Level); err == nil {
		r.app.Logger.SetLevel(lvl)
	}

	if cfg.Database.Dsn == r.dsn {
		// dry run and the compression method are bound into the backend
		b := r.backendFor(r.conn.get(), cfg)
		settings.Backend = &b
		return settings, nil
	}

	db, err := r.openDB(cfg)
	if err != nil {
		return scheduler.Settings{}, fmt.Errorf("failed to connect to reloaded database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return scheduler.Settings{}, fmt.Errorf("failed to reach reloaded database: %w", err)
	}

	r.dsn = cfg.Database.Dsn
	r.conn.set(db)
	registerDBMetrics(db)

	b := r.backendFor(db, cfg)
	settings.Backend = &b
	return settings, nil
}

// backendFor builds a backend whose Close releases db once nothing uses it.
// The database the command opened is closed by the command.
func (r *reloader) backendFor(db database.Database, cfg config.Configuration) scheduler.Backend {
	b := newBackend(r.app.Logger, db, cfg)
	b.Close = func() error {
		if db == r.app.DB || db == r.conn.get() {
			return nil
		}
		return db.Close()
	}
	return b
}

func printReport(w io.Writer, report *datastore.PassReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Created", "Dropped", "Compressed", "Detached", "Error"})

	for _, o := range report.Outcomes {
		errMsg := ""
		if o.Error != nil {
			errMsg = o.Error.Error()
		}

		table.Append([]string{
			o.TableID,
			fmt.Sprint(len(o.Created)),
			fmt.Sprint(len(o.Dropped)),
			fmt.Sprint(len(o.Compressed)),
			fmt.Sprint(len(o.Detached)),
			errMsg,
		})
	}

	table.Render()
}
