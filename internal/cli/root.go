// Package cli provides the command-line interface for balproc.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finreport-labs/balproc/internal/cli/commands"
	"github.com/finreport-labs/balproc/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "balproc",
		Short: "balproc - Balance Article Change Processor",
		Long: `balproc converts spreadsheets of change-log rows describing edits to a
balance report's article hierarchy into ordered balance_api stored-procedure
calls, executed directly against PostgreSQL or written to a reviewable
SQL script.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" ||
				cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			commands.SetConfig(cfg)

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			commands.SetLogger(logger)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./balproc.yaml)")
	rootCmd.PersistentFlags().String("db-host", "", "PostgreSQL host")
	rootCmd.PersistentFlags().Int("db-port", 0, "PostgreSQL port")
	rootCmd.PersistentFlags().String("db-name", "", "PostgreSQL database name")
	rootCmd.PersistentFlags().String("db-user", "", "PostgreSQL user")
	rootCmd.PersistentFlags().String("db-password", "", "PostgreSQL password")
	rootCmd.PersistentFlags().String("db-sslmode", "", "PostgreSQL sslmode")
	rootCmd.PersistentFlags().String("state-path", "", "Path to run-history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewScriptCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// newLogger builds the CLI logger writing to stderr.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
