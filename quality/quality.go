package quality

import (
	"math"
	"sort"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/util"
)

// Predictor maps an alignment error and a recognition signal to a predicted
// quality. Implementations must not increase with alignment error nor
// decrease with signal.
type Predictor interface {
	Predict(alignmentError, signal float64) float64
}

type Estimator struct {
	predictor   Predictor
	audioPrior  float64
	audioPriors map[string]float64
	penalty     float64
}

type Option func(*Estimator)

func WithPredictor(p Predictor) Option {
	return func(e *Estimator) {
		e.predictor = p
	}
}

func WithAudioPrior(prior float64) Option {
	return func(e *Estimator) {
		e.audioPrior = prior
	}
}

// WithAudioPriors sets benchmark accuracies per ACE method name.
func WithAudioPriors(priors map[string]float64) Option {
	return func(e *Estimator) {
		e.audioPriors = make(map[string]float64, len(priors))
		for k, v := range priors {
			e.audioPriors[k] = v
		}
	}
}

// WithFallbackPenalty sets how strongly alignment error discounts a MIDI
// source when no predictor is configured.
func WithFallbackPenalty(penalty float64) Option {
	return func(e *Estimator) {
		e.penalty = util.Clamp(penalty, 0, 1)
	}
}

func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		audioPrior: constants.DefaultAudioPrior,
		penalty:    constants.MIDIFallbackPenalty,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate scores one source. It is a pure function of its inputs.
func (e *Estimator) Estimate(kind model.SourceKind, f model.DiagnosticFeatures) model.QualityScore {
	switch {
	case kind == model.AudioACE:
		return model.Known(e.audioQuality(f.ACEMethod))
	case kind.IsMIDI():
		return e.midiQuality(f)
	case kind == model.TabAligned:
		if f.ChordProbability == nil || math.IsNaN(*f.ChordProbability) {
			return model.UnknownQuality
		}
		return model.Known(util.Clamp(*f.ChordProbability, 0, 1))
	}
	return model.UnknownQuality
}

func (e *Estimator) audioQuality(method string) float64 {
	if prior, ok := e.audioPriors[method]; ok {
		return prior
	}
	return e.audioPrior
}

func (e *Estimator) midiQuality(f model.DiagnosticFeatures) model.QualityScore {
	signal, ok := MIDISignal(f)
	if !ok || f.AlignmentError == nil || math.IsNaN(*f.AlignmentError) {
		return model.UnknownQuality
	}
	alignErr := math.Max(*f.AlignmentError, 0)

	var q float64
	if e.predictor != nil {
		q = e.predictor.Predict(alignErr, signal)
	} else {
		q = signal * (1 - e.penalty*math.Min(alignErr, 1))
	}
	if math.IsNaN(q) {
		return model.UnknownQuality
	}
	return model.Known(util.Clamp(q, 0, 1))
}

// MIDISignal is the mean of the root, min/maj and sevenths recognition
// sub-scores. All three must be present.
func MIDISignal(f model.DiagnosticFeatures) (float64, bool) {
	subs := []*float64{f.Root, f.MinMaj, f.Sevenths}
	var total float64
	for _, s := range subs {
		if s == nil || math.IsNaN(*s) {
			return 0, false
		}
		total += *s
	}
	return total / float64(len(subs)), true
}

// ScoreAll scores every candidate of a song. A tab without a chord-probability
// signal is scored against the song's audio estimate when a vocabulary is known.
func (e *Estimator) ScoreAll(song model.Song) model.Scores {
	scores := make(model.Scores, len(song.Candidates))
	audio, hasAudio := referenceAudio(song)
	for _, c := range song.Candidates {
		f := c.Diagnostics
		if c.Sequence.Kind == model.TabAligned && f.ChordProbability == nil && hasAudio && len(song.Vocabulary) > 0 {
			f.ChordProbability = util.Ptr(TabChordProbability(song.Vocabulary, audio))
		}
		scores[c.Sequence.Ref()] = e.Estimate(c.Sequence.Kind, f)
	}
	return scores
}

func referenceAudio(song model.Song) (model.LabelSequence, bool) {
	var audio []model.LabelSequence
	for _, c := range song.Candidates {
		if c.Sequence.Kind == model.AudioACE {
			audio = append(audio, c.Sequence)
		}
	}
	if len(audio) == 0 {
		return model.LabelSequence{}, false
	}
	sort.Slice(audio, func(i, j int) bool { return audio[i].ID < audio[j].ID })
	return audio[0], true
}

// TabChordProbability is the fraction of the audio estimate's chord duration
// whose majmin label occurs in the tab's unordered chord vocabulary. No-chord
// intervals are ignored.
func TabChordProbability(vocabulary []model.ChordLabel, audio model.LabelSequence) float64 {
	inVocab := make(map[model.ChordLabel]bool, len(vocabulary))
	for _, c := range vocabulary {
		inVocab[chord.Reduce(c, chord.VocabMajMin)] = true
	}

	var matched, total float64
	for _, iv := range audio.Intervals {
		if iv.Label.IsNoChord() {
			continue
		}
		d := iv.End - iv.Start
		total += d
		if inVocab[chord.Reduce(iv.Label, chord.VocabMajMin)] {
			matched += d
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}
