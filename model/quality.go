package model

// DiagnosticFeatures are the upstream alignment and recognition diagnostics
// of one candidate source. Nil fields were not reported.
type DiagnosticFeatures struct {
	AlignmentError   *float64
	ChordProbability *float64
	Root             *float64
	MinMaj           *float64
	Sevenths         *float64

	// ACEMethod names the audio chord estimator for audio sources.
	ACEMethod string
}

// QualityScore is a per-run reliability score. Scores are only comparable
// within one song and one run.
type QualityScore struct {
	Value float64
	Known bool
}

var UnknownQuality = QualityScore{}

func Known(v float64) QualityScore {
	return QualityScore{Value: v, Known: true}
}

// Compare orders unknown scores below every known score. Values closer than
// epsilon compare equal.
func (q QualityScore) Compare(o QualityScore, epsilon float64) int {
	switch {
	case !q.Known && !o.Known:
		return 0
	case !q.Known:
		return -1
	case !o.Known:
		return 1
	}
	d := q.Value - o.Value
	if d > epsilon {
		return 1
	}
	if d < -epsilon {
		return -1
	}
	return 0
}

type Scores = map[SourceRef]QualityScore
