package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cablebill/internal/cli"
	"cablebill/internal/log"
)

var version = "1.0.0"

// app is opened before every subcommand and closed after it, so each
// invocation flushes its changes to the configured store.
var app *cli.App

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the cable TV billing ledger from the command line",
	Long: `ledgerctl reads and changes the same ledger the cablebill server uses.

Storage, sync and messaging settings come from the environment (or a .env
file), exactly as for the server. Stop the server before writing to a
json-backed ledger from here; both processes would otherwise overwrite
each other's changes.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		if level == "" {
			level = "warn"
		}
		logger := cli.SetupLogger(level).WithComponent(log.ComponentCLI)
		cfg := cli.LoadAndValidateConfig(logger)

		var err error
		app, err = cli.Bootstrap(cmd.Context(), logger, cfg)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func closeApp() error {
	if app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := app.Close(ctx)
	app = nil
	return err
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closeApp()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL or warn")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
