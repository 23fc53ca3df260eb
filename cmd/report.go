package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/db"
	"github.com/jsphweid/chordfuse/export"
)

var (
	reportList  bool
	reportLimit int
	reportCSV   string
)

func init() {
	reportCmd.Flags().BoolVar(&reportList, "runs", false, "List recorded runs instead of reporting one")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "Runs to list with --runs (0 lists all)")
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "Also write the per-source rows to this CSV file")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Reports on a recorded run",
	Long:  `Prints the songs and per-source quality table of a run from the store. The run ID may be a unique prefix; without one the latest run is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cmd.Context(), cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if reportList {
			return listRuns(cmd, store)
		}
		var id string
		if len(args) == 1 {
			id = args[0]
		}
		return report(cmd.Context(), cmd, store, id)
	},
}

func listRuns(cmd *cobra.Command, store *db.Store) error {
	runs, err := store.Runs(cmd.Context(), reportLimit)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Policy,
			strconv.Itoa(r.Songs),
			strconv.Itoa(r.Failed),
			r.Manifest,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"run", "created", "policy", "songs", "failed", "manifest"}, rows, 3, 4))
	return nil
}

func report(ctx context.Context, cmd *cobra.Command, store *db.Store, id string) error {
	run, err := store.FindRun(ctx, id)
	if err != nil {
		return fmt.Errorf("run %q: %w", id, err)
	}
	songs, err := store.Songs(ctx, run.ID)
	if err != nil {
		return err
	}
	rows, err := store.SourceRows(ctx, run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s  %s  policy=%s  songs=%d  failed=%d\n",
		run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Policy, run.Songs, run.Failed)
	if run.ModelPath != "" {
		fmt.Fprintf(out, "model %s\n", run.ModelPath)
	}

	songRows := make([][]string, 0, len(songs))
	for _, s := range songs {
		status := s.Status
		if s.FellBack {
			status += " (audio only)"
		}
		songRows = append(songRows, []string{s.SongID, status, s.ErrorKind, s.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"song_id", "status", "error_kind", "error"}, songRows))
	fmt.Fprintln(out, export.RenderTable(rows))

	if reportCSV == "" {
		return nil
	}
	f, err := os.Create(reportCSV)
	if err != nil {
		return fmt.Errorf("create %s: %w", reportCSV, err)
	}
	if err := export.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
