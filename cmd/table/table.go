package table

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/catalog"
	"github.com/frain-dev/pgtime/internal/pkg/cli"
	"github.com/frain-dev/pgtime/pkg/partition"
)

func AddTableCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage registered partitioned tables",
	}

	cmd.AddCommand(addRegisterCommand(a))
	cmd.AddCommand(addDeregisterCommand(a))
	cmd.AddCommand(addListCommand(a))

	return cmd
}

type registerFlags struct {
	timeColumn  string
	interval    string
	retention   string
	compression string
}

func (f registerFlags) policy(tableID string) (*datastore.TablePolicy, error) {
	interval, err := partition.ParseInterval(f.interval)
	if err != nil {
		return nil, fmt.Errorf("partition interval: %w", err)
	}

	retention, err := partition.ParseInterval(f.retention)
	if err != nil {
		return nil, fmt.Errorf("retention interval: %w", err)
	}

	compression, err := partition.ParseInterval(f.compression)
	if err != nil {
		return nil, fmt.Errorf("compression interval: %w", err)
	}

	p := &datastore.TablePolicy{
		TableID:             catalog.QualifiedTableID(tableID),
		TimeColumn:          f.timeColumn,
		PartitionInterval:   interval,
		RetentionInterval:   retention,
		CompressionInterval: compression,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func addRegisterCommand(a *cli.App) *cobra.Command {
	var f registerFlags

	cmd := &cobra.Command{
		Use:   "register <schema.table>",
		Short: "Register a range partitioned table for maintenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.policy(args[0])
			if err != nil {
				return err
			}

			repo := catalog.New(a.Logger, a.DB)
			if err := repo.RegisterTable(cmd.Context(), p); err != nil {
				return err
			}

			a.Logger.Infof("registered %s", p.TableID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.timeColumn, "time-column", "", "Partition key column (required)")
	cmd.Flags().StringVar(&f.interval, "interval", "", "Partition interval, e.g. 24h (required)")
	cmd.Flags().StringVar(&f.retention, "retention", "", "Drop partitions older than this, e.g. 720h")
	cmd.Flags().StringVar(&f.compression, "compression", "", "Compress partitions older than this, e.g. 168h")
	_ = cmd.MarkFlagRequired("time-column")
	_ = cmd.MarkFlagRequired("interval")

	return cmd
}

func addDeregisterCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deregister <schema.table>",
		Short: "Stop maintaining a table. Existing partitions are left in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := catalog.New(a.Logger, a.DB)
			err := repo.DeregisterTable(cmd.Context(), args[0])
			if errors.Is(err, datastore.ErrPolicyNotFound) {
				return fmt.Errorf("%s is not registered", catalog.QualifiedTableID(args[0]))
			}
			if err != nil {
				return err
			}

			a.Logger.Infof("deregistered %s", catalog.QualifiedTableID(args[0]))
			return nil
		},
	}

	return cmd
}

func addListCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			policies, err := catalog.New(a.Logger, a.DB).LoadPolicies(cmd.Context())
			if err != nil {
				return err
			}

			printPolicies(cmd.OutOrStdout(), policies)
			return nil
		},
	}

	return cmd
}

func printPolicies(w io.Writer, policies []datastore.TablePolicy) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Time column", "Interval", "Retention", "Compression", "Last run"})

	for _, p := range policies {
		lastRun := "never"
		if p.LastRunAt.Valid {
			lastRun = p.LastRunAt.Time.UTC().Format(time.RFC3339)
		}

		table.Append([]string{
			p.TableID,
			p.TimeColumn,
			p.PartitionInterval.String(),
			orNone(p.HasRetention(), p.RetentionInterval),
			orNone(p.HasCompression(), p.CompressionInterval),
			lastRun,
		})
	}

	table.Render()
}

func orNone(set bool, d time.Duration) string {
	if !set {
		return "-"
	}
	return d.String()
}
