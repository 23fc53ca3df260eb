package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/evaluation"
	"github.com/jsphweid/chordfuse/manifest"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/regression"
	"github.com/jsphweid/chordfuse/sequence"
)

var (
	evalVocab        string
	evalObservations string
	evalSources      bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evalVocab, "vocab", string(chord.VocabMajMin), "Vocabulary for training observations (root, majmin, sevenths)")
	evaluateCmd.Flags().StringVar(&evalObservations, "observations", "", "Write MIDI training observations to this CSV file")
	evaluateCmd.Flags().BoolVar(&evalSources, "sources", false, "Also score every candidate source")
	rootCmd.AddCommand(evaluateCmd)
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <manifest.toml>",
	Short: "Scores fused output against reference annotations",
	Long:  `Computes chord symbol recall of the fused sequence (and optionally every candidate) for songs that name a reference annotation, and the duration-weighted mean over songs.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return evaluate(ctx, cmd, args[0])
	},
}

func csrCells(estimate, reference model.LabelSequence) []string {
	cells := make([]string, 0, len(chord.Vocabularies))
	for _, v := range chord.Vocabularies {
		cells = append(cells, fmt.Sprintf("%.4f", evaluation.CSR(estimate, reference, v)))
	}
	return cells
}

func evaluate(ctx context.Context, cmd *cobra.Command, manifestPath string) error {
	vocab, err := chord.ParseVocabulary(evalVocab)
	if err != nil {
		return err
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	p, err := newPipeline()
	if err != nil {
		return err
	}
	results, references, runErr := processManifest(ctx, m, p)

	var (
		rows   [][]string
		scores = make(map[chord.Vocabulary][]evaluation.SongScore, len(chord.Vocabularies))
		obs    []regression.Observation
	)
	for _, res := range results {
		ref, ok := references[res.Song.ID]
		if !ok {
			continue
		}
		obs = append(obs, evaluation.Observations(res.Song, ref, vocab)...)
		if res.Fused == nil {
			continue
		}
		duration := sequence.Duration(ref)
		for _, v := range chord.Vocabularies {
			scores[v] = append(scores[v], evaluation.SongScore{
				SongID:   res.Song.ID,
				Duration: duration,
				CSR:      evaluation.CSR(*res.Fused, ref, v),
			})
		}
		rows = append(rows, append([]string{res.Song.ID, res.Fused.Ref().String()}, csrCells(*res.Fused, ref)...))
		if evalSources {
			for _, c := range res.Song.Candidates {
				rows = append(rows, append([]string{res.Song.ID, c.Sequence.Ref().String()}, csrCells(c.Sequence, ref)...))
			}
		}
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "no songs with a reference annotation were fused")
	} else {
		fmt.Fprintln(out, renderTable([]string{"song_id", "source", "root", "majmin", "sevenths"}, rows, 2, 3, 4))
		for _, v := range chord.Vocabularies {
			fmt.Fprintf(out, "WCSR %-8s %.4f\n", v, evaluation.WCSR(scores[v]))
		}
	}

	if evalObservations != "" {
		f, err := os.Create(evalObservations)
		if err != nil {
			return fmt.Errorf("create observations file: %w", err)
		}
		if err := regression.WriteObservations(f, obs); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("observations written", "path", evalObservations, "count", len(obs), "vocab", string(vocab))
	}
	return runErr
}
