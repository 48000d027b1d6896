package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frain-dev/pgtime/internal/pkg/cli"
)

func AddVersionCommand(a *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Annotations: map[string]string{
			cli.ShouldBootstrap: "false",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pgtime %s\n", a.Version)
			return err
		},
	}

	return cmd
}
