package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/model"
)

// Run processes songs with at most workers in flight and returns one result
// per song in input order. Songs not started before ctx is cancelled carry
// the context error, which is also returned.
func Run(ctx context.Context, songs []model.Song, p Processor, workers int, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(songs))
	if len(songs) == 0 {
		return results, ctx.Err()
	}

	// Per-song failures land in results; the group only sees cancellation,
	// so one bad song never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, len(songs)))

	for i, song := range songs {
		if err := gctx.Err(); err != nil {
			results[i] = Result{Song: song, Err: err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Song: song, Err: err}
				return err
			}
			res := p.Process(song)
			if res.Err != nil {
				logger.Warn("song failed",
					logging.FieldSongID, song.ID,
					logging.FieldErrorKind, Classify(res.Err),
					logging.Error(res.Err),
				)
			} else if res.FellBack {
				logger.Info("fell back to audio estimate", logging.FieldSongID, song.ID)
			} else {
				logger.Debug("song fused", logging.FieldSongID, song.ID, "selected", len(res.Selected))
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Failed counts results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
