package cli

import (
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/frain-dev/pgtime/database"
	"github.com/frain-dev/pgtime/pkg/log"
)

// App is the core dependency of the entire binary.
type App struct {
	Version string
	DB      database.Database
	Logger  *log.Logger

	// ConfigPath is the file passed with --config.
	ConfigPath string
}

// ShouldBootstrap is the command annotation that, set to "false", skips
// opening the database before the command runs.
const ShouldBootstrap = "ShouldBootstrap"

type PgtimeCli struct {
	cmd *cobra.Command
}

func NewCli(app *App) *PgtimeCli {
	cmd := &cobra.Command{
		Use:           "pgtime",
		Version:       app.Version,
		Short:         "Time partition maintenance for Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	return &PgtimeCli{cmd: cmd}
}

func (c *PgtimeCli) Flags() *flag.FlagSet {
	return c.cmd.PersistentFlags()
}

func (c *PgtimeCli) PersistentPreRunE(fn func(*cobra.Command, []string) error) {
	c.cmd.PersistentPreRunE = fn
}

func (c *PgtimeCli) PersistentPostRunE(fn func(*cobra.Command, []string) error) {
	c.cmd.PersistentPostRunE = fn
}

func (c *PgtimeCli) AddCommand(subCmd *cobra.Command) {
	c.cmd.AddCommand(subCmd)
}

func (c *PgtimeCli) Command() *cobra.Command {
	return c.cmd
}

func (c *PgtimeCli) Execute() error {
	return c.cmd.Execute()
}

// Bootstraps reports whether cmd needs the database.
func Bootstraps(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[ShouldBootstrap] == "false" {
			return false
		}
	}
	return true
}
