package sequence

import (
	"math"
	"sort"

	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
)

// Validate checks that seq covers [0, duration) with contiguous, non-empty intervals.
func Validate(seq model.LabelSequence) error {
	return ValidateWithin(seq, constants.Epsilon)
}

func ValidateWithin(seq model.LabelSequence, epsilon float64) error {
	ref := seq.Ref()
	if len(seq.Intervals) == 0 {
		return &InvalidSequenceError{Source: ref, Index: -1, Reason: "no intervals"}
	}
	if math.Abs(seq.Intervals[0].Start) > epsilon {
		return &InvalidSequenceError{Source: ref, Index: 0, Reason: "does not start at 0"}
	}
	for i, iv := range seq.Intervals {
		if math.IsNaN(iv.Start) || math.IsNaN(iv.End) || math.IsInf(iv.End, 0) {
			return &InvalidSequenceError{Source: ref, Index: i, Reason: "non-finite boundary"}
		}
		if iv.End-iv.Start <= 0 {
			return &InvalidSequenceError{Source: ref, Index: i, Reason: "start is not before end"}
		}
		if i > 0 && math.Abs(iv.Start-seq.Intervals[i-1].End) > epsilon {
			return &InvalidSequenceError{Source: ref, Index: i, Reason: "not contiguous with previous interval"}
		}
	}
	return nil
}

// Duration is the end of the last interval, or 0 for an empty sequence.
func Duration(seq model.LabelSequence) float64 {
	if len(seq.Intervals) == 0 {
		return 0
	}
	return seq.Intervals[len(seq.Intervals)-1].End
}

// LabelAt returns the label of the interval containing t.
func LabelAt(seq model.LabelSequence, t float64) (model.ChordLabel, bool) {
	ivs := seq.Intervals
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].End > t })
	if i == len(ivs) || ivs[i].Start > t {
		return model.NoChordLabel, false
	}
	return ivs[i].Label, true
}

// Boundaries returns the sorted union of all interval boundaries. Boundaries
// closer than epsilon to the previous one are dropped.
func Boundaries(epsilon float64, seqs ...model.LabelSequence) []float64 {
	var all []float64
	for _, s := range seqs {
		for _, iv := range s.Intervals {
			all = append(all, iv.Start, iv.End)
		}
	}
	if len(all) == 0 {
		return nil
	}
	sort.Float64s(all)

	res := []float64{all[0]}
	for _, b := range all[1:] {
		if b-res[len(res)-1] > epsilon {
			res = append(res, b)
		}
	}
	return res
}

// MergeAdjacent joins neighbouring intervals that carry the same label.
func MergeAdjacent(seq model.LabelSequence) model.LabelSequence {
	res := model.LabelSequence{Kind: seq.Kind, ID: seq.ID}
	for _, iv := range seq.Intervals {
		if n := len(res.Intervals); n > 0 && res.Intervals[n-1].Label == iv.Label {
			res.Intervals[n-1].End = iv.End
			continue
		}
		res.Intervals = append(res.Intervals, iv)
	}
	return res
}

// FromChanges builds a sequence from chord change points. The span before
// the first change is labelled N, changes at or past duration are dropped,
// and the last label runs to duration.
func FromChanges(kind model.SourceKind, id string, times []float64, labels []model.ChordLabel, duration float64) model.LabelSequence {
	res := model.LabelSequence{Kind: kind, ID: id}
	if duration <= 0 {
		return res
	}

	cursor := 0.0
	current := model.NoChordLabel
	for i := range times {
		if i >= len(labels) {
			break
		}
		t := math.Max(times[i], 0)
		if t >= duration {
			break
		}
		if t > cursor {
			res.Intervals = append(res.Intervals, model.LabeledInterval{Start: cursor, End: t, Label: current})
			cursor = t
		}
		current = labels[i]
	}
	res.Intervals = append(res.Intervals, model.LabeledInterval{Start: cursor, End: duration, Label: current})
	return MergeAdjacent(res)
}

// Conform stretches seq onto [0, duration): leading and trailing gaps are
// labelled N, a tail shorter than epsilon is absorbed by the last interval,
// and intervals past duration are clipped.
func Conform(seq model.LabelSequence, duration float64) model.LabelSequence {
	res := model.LabelSequence{Kind: seq.Kind, ID: seq.ID}
	if len(seq.Intervals) > 0 && seq.Intervals[0].Start > constants.Epsilon {
		first := math.Min(seq.Intervals[0].Start, duration)
		res.Intervals = append(res.Intervals, model.LabeledInterval{Start: 0, End: first, Label: model.NoChordLabel})
	}
	for _, iv := range seq.Intervals {
		if iv.Start >= duration {
			break
		}
		if iv.End > duration {
			iv.End = duration
		}
		res.Intervals = append(res.Intervals, iv)
	}

	end := Duration(res)
	switch {
	case duration-end > constants.Epsilon:
		res.Intervals = append(res.Intervals, model.LabeledInterval{Start: end, End: duration, Label: model.NoChordLabel})
	case len(res.Intervals) > 0:
		res.Intervals[len(res.Intervals)-1].End = duration
	}
	return MergeAdjacent(res)
}
