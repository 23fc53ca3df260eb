package model

import "fmt"

type SourceKind string

const (
	AudioACE        SourceKind = "audio_ace"
	MIDIBarAligned  SourceKind = "midi_bar_aligned"
	MIDIBeatAligned SourceKind = "midi_beat_aligned"
	TabAligned      SourceKind = "tab_aligned"

	// Fused marks the output of a multi-source fusion run.
	Fused SourceKind = "fused"
)

// SourceKinds lists the kinds an upstream provider may hand to the core,
// in default fusion priority order.
var SourceKinds = []SourceKind{AudioACE, MIDIBarAligned, MIDIBeatAligned, TabAligned}

func ParseSourceKind(s string) (SourceKind, error) {
	for _, k := range SourceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

func (k SourceKind) IsMIDI() bool {
	return k == MIDIBarAligned || k == MIDIBeatAligned
}

// SourceRef identifies one label sequence within a song.
type SourceRef struct {
	Kind SourceKind
	ID   string
}

func (r SourceRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

type LabeledInterval struct {
	Start float64
	End   float64
	Label ChordLabel
}

// LabelSequence is a timed chord annotation of one song from one source.
// Values are treated as immutable; derive new sequences instead of editing Intervals.
type LabelSequence struct {
	Kind      SourceKind
	ID        string
	Intervals []LabeledInterval
}

func (s LabelSequence) Ref() SourceRef {
	return SourceRef{Kind: s.Kind, ID: s.ID}
}
