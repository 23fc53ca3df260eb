package fusion

import (
	"math"
	"slices"

	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/sequence"
)

type Engine struct {
	priority      map[model.SourceKind]int
	epsilon       float64
	unknownWeight float64
}

type Option func(*Engine)

// WithPriority sets the tie-break order of source kinds, strongest first.
// Kinds not listed rank after the listed ones.
func WithPriority(kinds []model.SourceKind) Option {
	return func(e *Engine) {
		e.priority = make(map[model.SourceKind]int, len(kinds))
		for i, k := range kinds {
			if _, ok := e.priority[k]; !ok {
				e.priority[k] = i
			}
		}
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(e *Engine) {
		e.epsilon = math.Abs(epsilon)
	}
}

// WithUnknownWeight sets the vote weight of sources with an unknown quality.
func WithUnknownWeight(w float64) Option {
	return func(e *Engine) {
		e.unknownWeight = w
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{epsilon: constants.Epsilon}
	WithPriority(model.SourceKinds)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) rank(kind model.SourceKind) int {
	if r, ok := e.priority[kind]; ok {
		return r
	}
	return len(e.priority)
}

func (e *Engine) weight(q model.QualityScore) float64 {
	if !q.Known {
		return e.unknownWeight
	}
	return q.Value
}

// tally is the running vote for one label on one sub-interval.
type tally struct {
	label model.ChordLabel
	sum   float64
	// strongest contributor, used for tie-breaks
	rank int
	id   string
}

func (t *tally) add(w float64, rank int, id string) {
	t.sum += w
	if rank < t.rank || (rank == t.rank && id < t.id) {
		t.rank, t.id = rank, id
	}
}

// winner takes the labels whose sum is within epsilon of the largest sum and
// breaks the tie by kind priority, then by source ID. Comparing every label
// against the maximum keeps the outcome independent of input order.
func (e *Engine) winner(votes []*tally) *tally {
	top := votes[0].sum
	for _, v := range votes[1:] {
		top = math.Max(top, v.sum)
	}
	var best *tally
	for _, v := range votes {
		if top-v.sum > e.epsilon {
			continue
		}
		if best == nil || v.rank < best.rank || (v.rank == best.rank && v.id < best.id) {
			best = v
		}
	}
	return best
}

// CheckDuration reports the first sequence whose duration differs from the
// song duration by more than epsilon. Candidates in seqs order are checked.
func CheckDuration(seqs []model.LabelSequence, duration, epsilon float64) error {
	for _, s := range seqs {
		if d := sequence.Duration(s); math.Abs(d-duration) > epsilon {
			return &InconsistentDurationError{Expected: duration, Actual: d, ActualRef: s.Ref()}
		}
	}
	return nil
}

// Fuse merges selected into a single sequence covering the shared duration.
// A single input is returned unchanged apart from merging equal neighbours.
func (e *Engine) Fuse(selected []model.LabelSequence, scores model.Scores) (model.LabelSequence, error) {
	if len(selected) == 0 {
		return model.LabelSequence{}, &EmptySelectionError{}
	}
	for _, s := range selected {
		if err := sequence.ValidateWithin(s, e.epsilon); err != nil {
			return model.LabelSequence{}, err
		}
	}

	// a fixed order keeps floating point sums identical across permutations
	selected = slices.Clone(selected)
	slices.SortFunc(selected, func(a, b model.LabelSequence) int {
		if refLess(a.Ref(), b.Ref()) {
			return -1
		}
		if refLess(b.Ref(), a.Ref()) {
			return 1
		}
		return 0
	})

	shortest, longest := selected[0], selected[0]
	for _, s := range selected[1:] {
		d := sequence.Duration(s)
		if d < sequence.Duration(shortest) {
			shortest = s
		}
		if d > sequence.Duration(longest) {
			longest = s
		}
	}
	duration := sequence.Duration(shortest)
	if d := sequence.Duration(longest); d-duration > e.epsilon {
		return model.LabelSequence{}, &InconsistentDurationError{
			Expected:    duration,
			ExpectedRef: shortest.Ref(),
			Actual:      d,
			ActualRef:   longest.Ref(),
		}
	}

	if len(selected) == 1 {
		return sequence.MergeAdjacent(selected[0]), nil
	}

	bounds := sequence.Boundaries(e.epsilon, selected...)
	if len(bounds) < 2 {
		return sequence.MergeAdjacent(selected[0]), nil
	}
	// snap both ends so every input agrees on them
	bounds[0], bounds[len(bounds)-1] = 0, duration

	cursors := make([]int, len(selected))
	out := model.LabelSequence{Kind: model.Fused, ID: constants.FusedID}
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		mid := start + (end-start)/2

		var votes []*tally
		for j, s := range selected {
			ivs := s.Intervals
			for cursors[j] < len(ivs)-1 && ivs[cursors[j]].End <= mid {
				cursors[j]++
			}
			label := ivs[cursors[j]].Label
			w := e.weight(scores[s.Ref()])
			rank := e.rank(s.Kind)

			var v *tally
			for _, existing := range votes {
				if existing.label == label {
					v = existing
					break
				}
			}
			if v == nil {
				v = &tally{label: label, rank: math.MaxInt, id: s.ID}
				votes = append(votes, v)
			}
			v.add(w, rank, s.ID)
		}

		out.Intervals = append(out.Intervals, model.LabeledInterval{Start: start, End: end, Label: e.winner(votes).label})
	}
	return sequence.MergeAdjacent(out), nil
}

func refLess(a, b model.SourceRef) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
