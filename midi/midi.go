package midi

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/sequence"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, fmt.Errorf("parse midi file %s: %v", filepath, r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parse midi file %s: %w", filepath, err)
	}
	return res, nil
}

// ChordSequence recognizes the chords of an audio-aligned MIDI file and lays
// them out over [0, duration).
func ChordSequence(path string, kind model.SourceKind, id string, duration float64) (model.LabelSequence, error) {
	parsed, err := ReadMidiFile(path)
	if err != nil {
		return model.LabelSequence{}, err
	}
	changes, err := chord.GetChanges(parsed)
	if err != nil {
		return model.LabelSequence{}, fmt.Errorf("%s: %w", path, err)
	}

	times := make([]float64, len(changes))
	labels := make([]model.ChordLabel, len(changes))
	for i, c := range changes {
		times[i], labels[i] = c.Offset, c.Label
	}
	return sequence.FromChanges(kind, id, times, labels, duration), nil
}
