package model

type Candidate struct {
	Sequence    LabelSequence
	Diagnostics DiagnosticFeatures
}

// Song owns the candidate sequences of one audio file. The candidate set is
// built once per batch and not shared between workers.
type Song struct {
	ID        string
	AudioPath string
	Duration  float64
	// Vocabulary is the unordered chord set of the song's tab, if one was found.
	Vocabulary []ChordLabel
	Candidates []Candidate
	Fused      *LabelSequence
}

func (s Song) Sequences() []LabelSequence {
	res := make([]LabelSequence, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		res = append(res, c.Sequence)
	}
	return res
}
