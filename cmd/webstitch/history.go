package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webstitch/internal/config"
	"github.com/nao1215/webstitch/internal/database"
	"github.com/nao1215/webstitch/internal/report"
)

// NewHistoryCmd creates the history command.
// This command lists and inspects archived runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and inspect archived stitch runs",
		Long: `History displays completed runs archived in the local database.

Every 'webstitch stitch' invocation (without --no-archive) records its
start URL, timing, and per-chapter results. Use this command to review
past runs or re-render one of them.

Examples:
  # List the most recent runs
  webstitch history

  # List the last 5 runs
  webstitch history --limit 5

  # Show the full summary of run 3
  webstitch history --show 3

  # Show run 3 as JSON
  webstitch history --show 3 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().Int64("show", 0,
		"Show the full summary of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (with --show)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// The history command never creates the database: no archive means
	// no history, not an empty one.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history found (runs are archived by 'webstitch stitch'): %w", err)
	}
	defer db.Close() //nolint:errcheck

	if showID > 0 {
		return showRun(cmd, db, showID, asJSON)
	}
	return listRuns(cmd, db, limit)
}

// listRuns prints a table of archived runs, newest first.
func listRuns(cmd *cobra.Command, db *database.StitchDB, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-20s %-10s %-9s %-9s %s\n",
		"ID", "STARTED", "ELAPSED", "CHAPTERS", "FAILURES", "START URL")
	for _, run := range runs {
		fmt.Fprintf(out, "%-5s %-20s %-10s %-9d %-9d %s\n",
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Elapsed.Round(time.Millisecond).String(),
			run.Chapters,
			run.Failures,
			run.StartURL,
		)
	}
	return nil
}

// showRun renders the full summary of one archived run.
func showRun(cmd *cobra.Command, db *database.StitchDB, id int64, asJSON bool) error {
	archived, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", id, err)
	}
	if archived == nil {
		return fmt.Errorf("run %d not found (use 'webstitch history' to list runs)", id)
	}

	var writer report.Writer
	if asJSON {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}

	_, err = writer.Write(archived)
	return err
}
