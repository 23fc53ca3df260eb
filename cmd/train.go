package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/regression"
)

var (
	trainSeed      uint64
	trainSongs     int
	trainModelPath string
)

func init() {
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 1, "Seed for the train/validation split")
	trainCmd.Flags().IntVar(&trainSongs, "train-songs", 0, "Songs sampled for fitting; the rest validate (0 uses every song)")
	trainCmd.Flags().StringVarP(&trainModelPath, "out", "o", "", "Model file to write (default model.path)")
	rootCmd.AddCommand(trainCmd)
}

var trainCmd = &cobra.Command{
	Use:   "train <observations.csv>",
	Short: "Fits the MIDI reliability model",
	Long: `Fits predicted quality = intercept + a*alignment_error + b*signal on observations written by
"chordfuse evaluate --observations", with a <= 0 and b >= 0, and saves it with its seed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return train(cmd, args[0])
	},
}

func train(cmd *cobra.Command, obsPath string) error {
	target := trainModelPath
	if target == "" {
		target = cfg.Model.Path
	}
	if target == "" {
		return errors.New("no model path: pass --out or set model.path")
	}

	f, err := os.Open(obsPath)
	if err != nil {
		return fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()
	obs, err := regression.ReadObservations(f)
	if err != nil {
		return err
	}

	m, err := regression.Train(obs, regression.TrainOptions{Seed: trainSeed, TrainSongs: trainSongs})
	if err != nil {
		// a failed fit leaves any existing model in place
		logger.Warn("training failed", logging.FieldErrorKind, batch.Classify(err), logging.Error(err))
		return err
	}
	if err := m.Save(target); err != nil {
		return err
	}
	logger.Info("model saved", "path", target, "observations", len(obs))
	fmt.Fprintln(cmd.OutOrStdout(), m.String())
	return nil
}
