package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/finreport-labs/balproc/internal/emit"
)

// ScriptOptions holds options for the script command.
type ScriptOptions struct {
	Output string
}

// NewScriptCommand creates the script command.
func NewScriptCommand() *cobra.Command {
	opts := &ScriptOptions{}

	cmd := &cobra.Command{
		Use:   "script FILE...",
		Short: "Generate a reviewable SQL script instead of executing",
		Long: `Process one or more change-log workbooks and write the resulting
balance_api calls to a single SQL file for review. The database connection
is still required: temporary identifiers are resolved through the real ID
allocator so the script is directly executable.`,
		Example: `  # Write the statements for one file to output.sql
  balproc script changes_2025_q1.xlsx

  # Combine several files into one named script
  balproc script jan.xlsx feb.xlsx -o q1_changes.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output SQL file (default from config)")

	return cmd
}

func runScript(ctx context.Context, opts *ScriptOptions, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	output := opts.Output
	if output == "" {
		output = getConfig().Output
	}

	eng, err := createEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	var scripts []*emit.FileScript
	statements := 0
	for _, file := range files {
		fmt.Printf("Processing %s...\n", file)
		script, err := eng.ScriptFile(ctx, file)
		if err != nil {
			fmt.Printf("  failed: %v\n", err)
			continue
		}
		if script.StatementCount() == 0 {
			fmt.Println("  no changes found")
			continue
		}
		scripts = append(scripts, script)
		statements += script.StatementCount()
	}

	if len(scripts) == 0 {
		return fmt.Errorf("no changes found in any input file")
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := emit.WriteScript(f, scripts, time.Now()); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	fmt.Printf("Wrote %d statements from %d files to %s\n", statements, len(scripts), output)
	return nil
}
