package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/htm-community/connections"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "htmconn",
		Short: "Inspect and exercise synaptic connection graphs",
		Long: `htmconn builds, inspects and scores synaptic connection graphs:
cells owning segments, segments owning weighted synapses to presynaptic cells.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: error, warn, info, debug or trace")

	rootCmd.AddCommand(
		newDemoCmd(),
		newInspectCmd(),
		newActivityCmd(),
	)
	return rootCmd
}

// loggerFor builds the structured logger selected by --log-level. Logs go to
// stderr so command output stays parseable.
func loggerFor(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return connections.NewLogger(level, cmd.ErrOrStderr())
}

func loadGraph(cmd *cobra.Command, path string, opts ...connections.Option) (*connections.Connections, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer f.Close()

	c, err := connections.Load(f, append([]connections.Option{connections.WithLogger(loggerFor(cmd))}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return c, nil
}
