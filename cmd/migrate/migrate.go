package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/internal/pkg/migrator"
)

func AddMigrateCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "pgtime catalog migrations",
	}

	cmd.AddCommand(addUpCommand(a))
	cmd.AddCommand(addDownCommand(a))
	cmd.AddCommand(addStatusCommand(a))

	return cmd
}

func addUpCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "up",
		Aliases: []string{"migrate-up"},
		Short:   "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := migrator.New(a.DB).Up()
			if err != nil {
				return fmt.Errorf("migration up failed with error: %w", err)
			}

			a.Logger.Infof("migration up succeeded, applied %d migration(s)", n)
			return nil
		},
	}

	return cmd
}

func addDownCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "down",
		Aliases: []string{"migrate-down"},
		Short:   "Rollback the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := migrator.New(a.DB).Down()
			if err != nil {
				return fmt.Errorf("migration down failed with error: %w", err)
			}

			a.Logger.Infof("migration down succeeded, rolled back %d migration(s)", n)
			return nil
		},
	}

	return cmd
}

func addStatusCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := migrator.New(a.DB).Pending()
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "catalog is up to date")
				return err
			}

			for _, id := range pending {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "pending: %s\n", id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}
