package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBootstraps(t *testing.T) {
	c := NewCli(&App{Version: "v0.1.0"})

	run := &cobra.Command{Use: "run"}
	version := &cobra.Command{Use: "version", Annotations: map[string]string{ShouldBootstrap: "false"}}
	short := &cobra.Command{Use: "short"}
	version.AddCommand(short)

	c.AddCommand(run)
	c.AddCommand(version)

	require.True(t, Bootstraps(run))
	require.False(t, Bootstraps(version))
	require.False(t, Bootstraps(short))
	require.Equal(t, "v0.1.0", c.Command().Version)
}
