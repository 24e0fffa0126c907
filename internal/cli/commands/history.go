package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/finreport-labs/balproc/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent processing runs",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runHistory(limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")

	return cmd
}

func runHistory(limit int) error {
	store := state.NewSQLiteStore()
	if err := store.Open(getConfig().StatePath); err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		return err
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Started", "File", "Report", "Mode", "Statements", "Status", "Error"})

	for _, run := range runs {
		errMsg := run.Error
		if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}
		t.AppendRow(table.Row{
			run.StartedAt.Local().Format(time.DateTime),
			run.SourceFile,
			run.ReportID,
			run.Mode,
			run.Statements,
			run.Status,
			errMsg,
		})
	}

	t.Render()
	return nil
}
