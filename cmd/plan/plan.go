package plan

import (
	"io"
	"time"

	partman "github.com/jirevwe/go_partman"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime/config"
	"github.com/frain-dev/pgtime/database/postgres"
	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/catalog"
	"github.com/frain-dev/pgtime/internal/executor"
	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/internal/scheduler"
	"github.com/frain-dev/pgtime/pkg/partition"
)

func AddPlanCommand(a *cli.App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "plan <schema.table>",
		Short: "Print the maintenance plan for a table without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}

			var clock scheduler.Clock = partman.NewRealClock()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return err
				}
				clock = partman.NewSimulatedClock(t)
			}

			policy, err := catalog.New(a.Logger, a.DB).FindPolicy(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tx := postgres.NewPartitionTransactor(a.DB, cfg.Maintenance.CompressionMethod, a.Logger)
			gw := executor.New(a.Logger, tx, executor.Options{OperationTimeout: cfg.Maintenance.OperationTimeout.Duration()})

			observed, err := gw.Observe(cmd.Context(), *policy)
			if err != nil {
				return err
			}

			epoch, err := cfg.Maintenance.EpochTime()
			if err != nil {
				return err
			}

			engine := partition.NewEngine(partition.Options{Lookahead: cfg.Maintenance.Lookahead, Epoch: epoch})
			printPlan(cmd.OutOrStdout(), engine.Plan(*policy, clock.Now(), observed))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Plan as of this RFC3339 instant instead of now")

	return cmd
}

func printPlan(w io.Writer, p datastore.Plan) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Action", "Partition", "From", "To"})

	add := func(action string, windows []datastore.PartitionWindow) {
		for _, win := range windows {
			table.Append([]string{
				action,
				win.Name(),
				win.Start.UTC().Format(time.RFC3339),
				win.End.UTC().Format(time.RFC3339),
			})
		}
	}

	add("create", p.ToCreate)
	add("retire", p.ToRetire)
	add("compress", p.ToCompress)

	table.Render()
}
