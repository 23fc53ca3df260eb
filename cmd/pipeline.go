package cmd

import (
	"context"
	"fmt"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/manifest"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/quality"
	"github.com/jsphweid/chordfuse/regression"
)

func newPipeline() (*batch.Pipeline, error) {
	var predictor quality.Predictor
	if cfg.Model.Path != "" {
		m, err := regression.Load(cfg.Model.Path)
		if err != nil {
			return nil, fmt.Errorf("load quality model: %w", err)
		}
		logger.Info("quality model loaded", "path", cfg.Model.Path, "model", m.String())
		predictor = m
	}
	return batch.NewPipeline(cfg, predictor, logger)
}

// processManifest materializes every song of m and runs the pipeline over
// those that loaded. Results keep manifest order; songs that failed to load
// carry their error. References are keyed by song ID.
func processManifest(ctx context.Context, m *manifest.Manifest, p batch.Processor) ([]batch.Result, map[string]model.LabelSequence, error) {
	results := make([]batch.Result, len(m.Songs))
	references := make(map[string]model.LabelSequence)

	var (
		songs   []model.Song
		indices []int
	)
	for i, entry := range m.Songs {
		song, ref, err := m.Song(entry)
		if err != nil {
			logger.Warn("song not loaded", logging.FieldSongID, entry.ID, logging.Error(err))
			results[i] = batch.Result{Song: model.Song{ID: entry.ID}, Err: err}
			continue
		}
		if ref != nil {
			references[song.ID] = *ref
		}
		songs = append(songs, song)
		indices = append(indices, i)
	}

	processed, err := batch.Run(ctx, songs, p, cfg.Batch.Workers, logger)
	for j, res := range processed {
		results[indices[j]] = res
	}
	return results, references, err
}
