package model

// PitchClass is a chord root, 0 (C) through 11 (B).
type PitchClass int8

type Quality uint8

const (
	NoChord Quality = iota
	Major
	Minor
	Dominant7
	Major7
	Minor7
)

var qualityNames = [...]string{"", "maj", "min", "7", "maj7", "min7"}

func (q Quality) String() string {
	if int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return "unknown"
}

// IsSeventh reports whether the quality carries a seventh extension.
func (q Quality) IsSeventh() bool {
	return q == Dominant7 || q == Major7 || q == Minor7
}

var pitchNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// ChordLabel is an atomic chord symbol. The zero value is the no-chord symbol.
// Build labels with NewChordLabel so that equal chords compare equal.
type ChordLabel struct {
	Root    PitchClass
	Quality Quality
}

var NoChordLabel = ChordLabel{}

func NewChordLabel(root int, quality Quality) ChordLabel {
	if quality == NoChord {
		return NoChordLabel
	}
	pc := root % 12
	if pc < 0 {
		pc += 12
	}
	return ChordLabel{Root: PitchClass(pc), Quality: quality}
}

func (c ChordLabel) IsNoChord() bool {
	return c.Quality == NoChord
}

// String renders the label in Harte syntax, e.g. "C:maj", "A:min7" or "N".
func (c ChordLabel) String() string {
	if c.IsNoChord() || c.Root < 0 || int(c.Root) >= len(pitchNames) {
		return "N"
	}
	return pitchNames[c.Root] + ":" + c.Quality.String()
}

func PitchName(pc PitchClass) string {
	if pc < 0 || int(pc) >= len(pitchNames) {
		return ""
	}
	return pitchNames[pc]
}
