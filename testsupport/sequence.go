package testsupport

import (
	"testing"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/model"
)

// Sequence builds a label sequence from boundaries and chord symbols:
// Sequence(t, kind, "a", []float64{0, 2, 4}, "C:maj", "A:min") covers [0, 4).
func Sequence(t testing.TB, kind model.SourceKind, id string, bounds []float64, symbols ...string) model.LabelSequence {
	t.Helper()

	if len(bounds) != len(symbols)+1 {
		t.Fatalf("sequence %s: %d bounds for %d labels", id, len(bounds), len(symbols))
	}
	seq := model.LabelSequence{Kind: kind, ID: id}
	for i, sym := range symbols {
		label, err := chord.Parse(sym)
		if err != nil {
			t.Fatalf("sequence %s: %v", id, err)
		}
		seq.Intervals = append(seq.Intervals, model.LabeledInterval{Start: bounds[i], End: bounds[i+1], Label: label})
	}
	return seq
}

// Labels renders a sequence as "start-end label" strings for compact assertions.
func Labels(seq model.LabelSequence) []string {
	res := make([]string, 0, len(seq.Intervals))
	for _, iv := range seq.Intervals {
		res = append(res, formatInterval(iv))
	}
	return res
}
