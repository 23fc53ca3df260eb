// Package evaluation scores label sequences against reference annotations
// with chord symbol recall (CSR) and turns scored sources into training
// observations for the reliability model.
package evaluation

import (
	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/quality"
	"github.com/jsphweid/chordfuse/regression"
	"github.com/jsphweid/chordfuse/sequence"
	"github.com/jsphweid/chordfuse/util"
	"gonum.org/v1/gonum/stat"
)

// CSR is the fraction of the reference duration on which the estimate's label,
// reduced to vocab, equals the reference label. The estimate is conformed to
// the reference duration first.
func CSR(estimate, reference model.LabelSequence, vocab chord.Vocabulary) float64 {
	duration := sequence.Duration(reference)
	if duration <= 0 {
		return 0
	}
	est := sequence.Conform(estimate, duration)
	bounds := sequence.Boundaries(constants.Epsilon, est, reference)

	var matched float64
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		mid := start + (end-start)/2
		a, okA := sequence.LabelAt(est, mid)
		b, okB := sequence.LabelAt(reference, mid)
		if okA && okB && chord.Reduce(a, vocab) == chord.Reduce(b, vocab) {
			matched += end - start
		}
	}
	return matched / duration
}

type SongScore struct {
	SongID   string
	Duration float64
	CSR      float64
}

// WCSR is the duration-weighted mean CSR over songs.
func WCSR(scores []SongScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	x := make([]float64, len(scores))
	w := make([]float64, len(scores))
	for i, s := range scores {
		x[i], w[i] = s.CSR, s.Duration
	}
	if util.Sum(w) == 0 {
		return 0
	}
	return stat.Mean(x, w)
}

// Observations scores each MIDI candidate of song against reference under
// vocab. Candidates without an alignment error or a complete set of
// sub-scores are skipped.
func Observations(song model.Song, reference model.LabelSequence, vocab chord.Vocabulary) []regression.Observation {
	var res []regression.Observation
	for _, c := range song.Candidates {
		if !c.Sequence.Kind.IsMIDI() || c.Diagnostics.AlignmentError == nil {
			continue
		}
		signal, ok := quality.MIDISignal(c.Diagnostics)
		if !ok {
			continue
		}
		res = append(res, regression.Observation{
			SongID:         song.ID,
			AlignmentError: *c.Diagnostics.AlignmentError,
			Signal:         signal,
			Realized:       CSR(c.Sequence, reference, vocab),
		})
	}
	return res
}
