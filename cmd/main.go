package main

import (
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime"
	"github.com/frain-dev/pgtime/cmd/migrate"
	"github.com/frain-dev/pgtime/cmd/plan"
	"github.com/frain-dev/pgtime/cmd/run"
	"github.com/frain-dev/pgtime/cmd/table"
	"github.com/frain-dev/pgtime/cmd/version"
	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/database/postgres"
	"github.com/frain-dev/pgtime/internal/lifecycle"
	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/pkg/log"
)

func main() {
	err := os.Setenv("TZ", "") // Use UTC by default :)
	if err != nil {
		log.Fatalf("failed to set env - %v", err)
	}

	app := &cli.App{
		Version: pgtime.GetVersion(),
		Logger:  log.NewLogger(os.Stdout),
	}

	c := cli.NewCli(app)

	var logLevel string
	c.Flags().StringVar(&app.ConfigPath, "config", "./pgtime.json", "Configuration file for pgtime")
	c.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	c.PersistentPreRunE(preRun(app, &logLevel))
	c.PersistentPostRunE(postRun(app))

	c.AddCommand(run.AddRunCommand(app))
	c.AddCommand(migrate.AddMigrateCommand(app))
	c.AddCommand(table.AddTableCommand(app))
	c.AddCommand(plan.AddPlanCommand(app))
	c.AddCommand(version.AddVersionCommand(app))

	if err := c.Execute(); err != nil {
		app.Logger.WithError(err).Error("pgtime exited with error")
		os.Exit(lifecycle.ExitCode(err))
	}
}

func preRun(app *cli.App, logLevel *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !cli.Bootstraps(cmd) {
			return nil
		}

		if *logLevel != "" {
			lvl := *logLevel
			if err := config.Override(func(c *config.Configuration) {
				c.Logger.Level = lvl
			}); err != nil {
				return err
			}
		}

		if err := config.LoadConfig(app.ConfigPath); err != nil {
			return err
		}

		cfg, err := config.Get()
		if err != nil {
			return err
		}

		lvl, err := log.ParseLevel(cfg.Logger.Level)
		if err != nil {
			return err
		}
		app.Logger.SetLevel(lvl)

		db, err := postgres.NewDB(cfg)
		if err != nil {
			return err
		}
		app.DB = db

		return nil
	}
}

func postRun(app *cli.App) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if app.DB == nil {
			return nil
		}
		return app.DB.Close()
	}
}
