package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/harrison/pvcheck/internal/config"
	"github.com/harrison/pvcheck/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `Show the most recent runs stored in the history database, or the
test cases of a single run with --run.

The database is the history_db setting unless --db is given.`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}
	cmd.Flags().String("db", "", "History database (default history_db setting)")
	cmd.Flags().Int("limit", 10, "Number of runs to show")
	cmd.Flags().String("run", "", "Show the test cases of this run ID")
	cmd.Flags().String("settings", "", "Settings file (default .pvcheck/config.yaml)")
	return cmd
}

func historyCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return infraError(err)
	}
	dbPath := cfg.HistoryDB
	if cmd.Flags().Changed("db") {
		dbPath, _ = cmd.Flags().GetString("db")
	}
	if dbPath == "" {
		return infraError(errors.New("no history database configured (set history_db or use --db)"))
	}
	if dbPath, err = config.ExpandHome(dbPath); err != nil {
		return infraError(err)
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return infraError(err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runID, _ := cmd.Flags().GetString("run")
	var rendered string
	if runID != "" {
		rendered, err = caseTable(ctx, store, runID)
	} else {
		limit, _ := cmd.Flags().GetInt("limit")
		rendered, err = runTable(ctx, store, limit)
	}
	if err != nil {
		return infraError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

func runTable(ctx context.Context, store *history.Store, limit int) (string, error) {
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "No runs recorded", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Program", "Test file", "Tests", "Failed"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
	})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Program,
			r.TestFile,
			r.Total,
			r.Failed,
		})
	}
	return t.Render(), nil
}

func caseTable(ctx context.Context, store *history.Store, runID string) (string, error) {
	cases, err := store.CaseResults(ctx, runID)
	if err != nil {
		return "", err
	}
	if len(cases) == 0 {
		return "", fmt.Errorf("run %s not found", runID)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Test", "Result", "Exit", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, c := range cases {
		result := "FAIL"
		if c.Passed {
			result = "PASS"
		}
		name := c.Description
		if name == "" {
			name = "NoName"
		}
		t.AppendRow(table.Row{
			c.Index + 1,
			name,
			result,
			c.ExitStatus,
			c.Duration.Round(time.Millisecond),
			c.ErrorMessage,
		})
	}
	return t.Render(), nil
}
