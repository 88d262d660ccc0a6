// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables that provide defaults for unset flags. They can also
// be set in a .env file in the working directory.
const (
	EnvRecord      = "CACHESIM_RECORD"
	EnvMonitorPort = "CACHESIM_MONITOR_PORT"
	EnvFormat      = "CACHESIM_FORMAT"
)

// NewRootCmd creates the base command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim simulates a set-associative cache against a memory trace.",
		Long: `cachesim simulates a set-associative cache against a memory trace. ` +
			`It reports hits, misses and memory traffic, and can record every ` +
			`access into a SQLite database for later inspection.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv()
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInspectCmd())

	return rootCmd
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		return 1
	}

	return 0
}
