package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Execute change-log files against the database",
		Long: `Process one or more change-log workbooks and execute the resulting
balance_api calls, one transaction per file. A failing statement rolls back
its file and processing continues with the next one.`,
		Example: `  # Execute a single change-log file
  balproc run changes_2025_q1.xlsx

  # Execute several files in order
  balproc run jan.xlsx feb.xlsx mar.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

func runRun(ctx context.Context, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	eng, err := createEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	succeeded := 0
	for _, file := range files {
		fmt.Printf("Processing %s...\n", file)
		script, err := eng.ExecuteFile(ctx, file)
		if err != nil {
			fmt.Printf("  failed: %v\n", err)
			continue
		}
		if script.StatementCount() == 0 {
			fmt.Println("  no changes found")
			continue
		}
		fmt.Printf("  executed %d statements\n", script.StatementCount())
		succeeded++
	}

	fmt.Printf("Processed %d of %d files in %s\n",
		succeeded, len(files), time.Since(startTime).Round(time.Millisecond))
	if succeeded < len(files) {
		return fmt.Errorf("%d of %d files failed", len(files)-succeeded, len(files))
	}
	return nil
}
