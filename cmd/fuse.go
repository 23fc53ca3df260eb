package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/db"
	"github.com/jsphweid/chordfuse/export"
	"github.com/jsphweid/chordfuse/labfile"
	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/manifest"
	"github.com/jsphweid/chordfuse/util"
)

var (
	fuseOutDir  string
	fuseNoStore bool
	fuseTable   bool
)

func init() {
	fuseCmd.Flags().StringVarP(&fuseOutDir, "out", "o", "", "Output directory (default $CHORDFUSE_OUTPUT_PATH or ./out)")
	fuseCmd.Flags().BoolVar(&fuseNoStore, "no-store", false, "Do not record the run in the store")
	fuseCmd.Flags().BoolVar(&fuseTable, "table", false, "Print the per-source table")
	rootCmd.AddCommand(fuseCmd)
}

var fuseCmd = &cobra.Command{
	Use:   "fuse <manifest.toml>",
	Short: "Fuses every song of a manifest",
	Long: `Scores, selects and fuses the candidate sequences of every song in the manifest.
Writes one .lab per song plus sources.csv to the output directory and records the run in the store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return fuse(ctx, cmd, args[0])
	},
}

func fuse(ctx context.Context, cmd *cobra.Command, manifestPath string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	p, err := newPipeline()
	if err != nil {
		return err
	}

	results, _, runErr := processManifest(ctx, m, p)

	outDir := fuseOutDir
	if outDir == "" {
		outDir = constants.GetOutputDir()
	}
	if err := writeOutputs(outDir, results); err != nil {
		return err
	}

	rows := export.AllRows(results)
	if fuseTable {
		fmt.Fprintln(cmd.OutOrStdout(), export.RenderTable(rows))
	}

	if !fuseNoStore {
		store, err := db.Open(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err := store.SaveRun(ctx, db.Run{
			Manifest:  manifestPath,
			Policy:    p.Selector.Name(),
			ModelPath: cfg.Model.Path,
		}, results)
		if err != nil {
			return err
		}
		logger.Info("run recorded", logging.FieldRunID, run.ID, "songs", run.Songs, "failed", run.Failed)
	}

	failed := batch.Failed(results)
	fmt.Fprintf(cmd.OutOrStdout(), "fused %d of %d songs into %s\n", len(results)-failed, len(results), outDir)
	if runErr != nil {
		return runErr
	}
	return nil
}

func writeOutputs(outDir string, results []batch.Result) error {
	if err := util.EnsureDir(outDir); err != nil {
		return err
	}
	for _, res := range results {
		if res.Fused == nil {
			continue
		}
		path := filepath.Join(outDir, res.Song.ID+".lab")
		if err := labfile.WriteFile(path, *res.Fused); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(outDir, "sources.csv"))
	if err != nil {
		return fmt.Errorf("create sources.csv: %w", err)
	}
	if err := export.WriteCSV(f, export.AllRows(results)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
