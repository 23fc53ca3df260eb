package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jsphweid/chordfuse/config"
	"github.com/jsphweid/chordfuse/fusion"
	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/quality"
	"github.com/jsphweid/chordfuse/selection"
	"github.com/jsphweid/chordfuse/sequence"
)

// Result is the outcome of processing one song.
type Result struct {
	Song     model.Song
	Scores   model.Scores
	Selected []model.LabelSequence
	Ranking  []selection.KindRanking
	// Fused is nil when Err is set.
	Fused *model.LabelSequence
	// FellBack reports that fusion had nothing to work with and the
	// song's audio estimate was used as is.
	FellBack bool
	Err      error
}

// IsSelected reports whether ref was among the fused inputs.
func (r Result) IsSelected(ref model.SourceRef) bool {
	for _, s := range r.Selected {
		if s.Ref() == ref {
			return true
		}
	}
	return false
}

// Processor turns one song into a result.
type Processor interface {
	Process(song model.Song) Result
}

// Pipeline scores every candidate, selects a subset and fuses it.
type Pipeline struct {
	Estimator *quality.Estimator
	Selector  selection.Selector
	Engine    *fusion.Engine
	Epsilon   float64
	Logger    *slog.Logger
}

// NewPipeline wires a pipeline from configuration. predictor may be nil, in
// which case MIDI sources use the alignment-error fallback.
func NewPipeline(cfg *config.Config, predictor quality.Predictor, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	sel, err := selection.New(cfg.Selection.Policy)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	if eb, ok := sel.(selection.ExpectedBest); ok {
		eb.Epsilon = cfg.Fusion.Epsilon
		sel = eb
	}

	opts := []quality.Option{
		quality.WithAudioPrior(cfg.Quality.AudioPrior),
		quality.WithAudioPriors(cfg.Quality.AudioPriors),
		quality.WithFallbackPenalty(cfg.Quality.MIDIFallbackPenalty),
	}
	if predictor != nil {
		opts = append(opts, quality.WithPredictor(predictor))
	}

	return &Pipeline{
		Estimator: quality.NewEstimator(opts...),
		Selector:  sel,
		Engine: fusion.NewEngine(
			fusion.WithPriority(cfg.PriorityKinds()),
			fusion.WithEpsilon(cfg.Fusion.Epsilon),
			fusion.WithUnknownWeight(cfg.Fusion.UnknownWeight),
		),
		Epsilon: cfg.Fusion.Epsilon,
		Logger:  logger.With(logging.FieldComponent, "pipeline"),
	}, nil
}

func (p *Pipeline) Process(song model.Song) Result {
	res := Result{Song: song}
	candidates := song.Sequences()

	res.Scores = p.Estimator.ScoreAll(song)
	res.Ranking = selection.Rank(candidates, res.Scores, p.Epsilon)
	for ref, q := range res.Scores {
		if !q.Known {
			p.Logger.Debug("quality unknown", logging.FieldSongID, song.ID, logging.FieldSourceID, ref.String())
		}
	}

	if song.Duration > 0 {
		if err := fusion.CheckDuration(candidates, song.Duration, p.Epsilon); err != nil {
			res.Err = fmt.Errorf("song %s: %w", song.ID, err)
			return res
		}
	}

	selected, err := p.Selector.Select(candidates, res.Scores)
	if err != nil {
		var noCandidates *selection.NoCandidatesError
		if errors.As(err, &noCandidates) {
			noCandidates.SongID = song.ID
		}
		res.Err = err
		return res
	}
	res.Selected = selected

	fused, err := p.Engine.Fuse(selected, res.Scores)
	if err != nil {
		var empty *fusion.EmptySelectionError
		if errors.As(err, &empty) {
			if audio, ok := audioOnly(candidates); ok {
				res.Fused = &audio
				res.Song.Fused = &audio
				res.Selected = []model.LabelSequence{audio}
				res.FellBack = true
				return res
			}
		}
		res.Err = fmt.Errorf("song %s: %w", song.ID, err)
		return res
	}
	res.Fused = &fused
	res.Song.Fused = &fused
	return res
}

// audioOnly picks the audio estimate with the smallest ID.
func audioOnly(candidates []model.LabelSequence) (model.LabelSequence, bool) {
	var audio []model.LabelSequence
	for _, c := range candidates {
		if c.Kind == model.AudioACE {
			audio = append(audio, c)
		}
	}
	if len(audio) == 0 {
		return model.LabelSequence{}, false
	}
	sort.Slice(audio, func(i, j int) bool { return audio[i].ID < audio[j].ID })
	return sequence.MergeAdjacent(audio[0]), true
}
