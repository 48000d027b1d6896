package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	partman "github.com/jirevwe/go_partman"
	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/internal/lifecycle"
	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/internal/pkg/locker"
	"github.com/frain-dev/pgtime/internal/pkg/metrics"
	"github.com/frain-dev/pgtime/internal/pkg/rdb"
	"github.com/frain-dev/pgtime/internal/pkg/server"
	"github.com/frain-dev/pgtime/internal/scheduler"
)

func AddRunCommand(a *cli.App) *cobra.Command {
	var (
		once      bool
		dryRun    bool
		interval  time.Duration
		lookahead uint
		port      uint32
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the partition maintenance daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			err := config.Override(func(c *config.Configuration) {
				if flags.Changed("dry-run") {
					c.Maintenance.DryRun = dryRun
				}
				if flags.Changed("interval") {
					c.Maintenance.Interval = config.Duration(interval)
				}
				if flags.Changed("lookahead") {
					c.Maintenance.Lookahead = lookahead
				}
				if flags.Changed("port") {
					c.Server.Port = port
				}
			})
			if err != nil {
				return err
			}

			cfg, err := config.Get()
			if err != nil {
				return err
			}

			if once {
				return runOnce(cmd.Context(), cmd.OutOrStdout(), a, cfg)
			}

			return runDaemon(cmd.Context(), a, cfg)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single maintenance pass and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log plans without executing them")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between maintenance passes")
	cmd.Flags().UintVar(&lookahead, "lookahead", 0, "Number of partition intervals to create ahead of now")
	cmd.Flags().Uint32Var(&port, "port", 0, "Port of the HTTP control server")

	return cmd
}

func newScheduler(a *cli.App, cfg config.Configuration, conn *connection) (*scheduler.Scheduler, func(), error) {
	settings, err := settingsFrom(cfg)
	if err != nil {
		return nil, nil, err
	}

	backend := newBackend(a.Logger, a.DB, cfg)
	m := metrics.GetInstance()
	registerDBMetrics(a.DB)

	opts := []scheduler.Option{
		scheduler.WithClock(partman.NewRealClock()),
		scheduler.WithMetrics(m),
		scheduler.WithReloadFunc(newReloader(a, cfg, conn).reload),
	}

	cleanup := func() {}
	if cfg.Redis.Dsn != "" {
		r, err := rdb.NewClientFromDsn(cfg.Redis.Dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		opts = append(opts, scheduler.WithLocker(locker.New(a.Logger, r.Client(), locker.DefaultMutexName, cfg.Redis.LockTTL.Duration())))
		cleanup = func() {
			if err := r.Close(); err != nil {
				a.Logger.WithError(err).Error("failed to close redis client")
			}
		}
	}

	return scheduler.New(a.Logger.WithPrefix("scheduler"), backend, settings, opts...), cleanup, nil
}

func runOnce(ctx context.Context, out io.Writer, a *cli.App, cfg config.Configuration) error {
	conn := &connection{db: a.DB}
	s, cleanup, err := newScheduler(a, cfg, conn)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, release := lifecycle.New(a.Logger, s).Context(ctx)
	defer release()

	report, err := s.RunOnce(ctx)
	if err != nil {
		return err
	}

	if report == nil {
		a.Logger.Warn("maintenance pass skipped")
		return nil
	}

	printReport(out, report)
	if n := report.Failures(); n > 0 {
		a.Logger.Warnf("%d table(s) failed maintenance", n)
	}
	return nil
}

func runDaemon(ctx context.Context, a *cli.App, cfg config.Configuration) error {
	conn := &connection{db: a.DB}
	s, cleanup, err := newScheduler(a, cfg, conn)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, release := lifecycle.New(a.Logger, s).Context(ctx)
	defer release()

	monitor := lifecycle.NewHostMonitor(a.Logger, conn,
		cfg.Lifecycle.HostCheckInterval.Duration(), cfg.Lifecycle.HostFailureThreshold, s.HostLost)
	go monitor.Run(ctx)

	if cfg.Lifecycle.WatchConfig && a.ConfigPath != "" {
		w, err := lifecycle.NewConfigWatcher(a.Logger, a.ConfigPath, 0, s.Reload)
		if err != nil {
			a.Logger.WithError(err).Warn("config file watch disabled")
		} else {
			go w.Run(ctx)
		}
	}

	srv := server.NewServer(cfg.Server.Port, a.Logger)
	srv.SetHandler(server.NewHandler(s, metrics.Reg()))
	srv.Listen()
	a.Logger.Infof("control server listening on %s", srv.Addr())

	err = s.Run(ctx)

	if serr := srv.Shutdown(context.Background()); serr != nil {
		a.Logger.WithError(serr).Error("failed to stop control server")
	}

	if errors.Is(err, scheduler.ErrHostUnavailable) {
		a.Logger.WithError(err).Error("stopping after losing the database host")
	}

	// the reloader may have replaced the connection the command opened
	if db := conn.get(); db != a.DB {
		if cerr := db.Close(); cerr != nil {
			a.Logger.WithError(cerr).Error("failed to close database")
		}
	}

	return err
}
