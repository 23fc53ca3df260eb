package chord

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsphweid/chordfuse/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

type Vocabulary string

const (
	VocabRoot     Vocabulary = "root"
	VocabMajMin   Vocabulary = "majmin"
	VocabSevenths Vocabulary = "sevenths"
)

var Vocabularies = []Vocabulary{VocabRoot, VocabMajMin, VocabSevenths}

func ParseVocabulary(s string) (Vocabulary, error) {
	for _, v := range Vocabularies {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vocabulary %q", s)
}

// Reduce maps a label onto the given evaluation vocabulary.
func Reduce(c model.ChordLabel, vocab Vocabulary) model.ChordLabel {
	if c.IsNoChord() {
		return c
	}
	switch vocab {
	case VocabRoot:
		return model.NewChordLabel(int(c.Root), model.Major)
	case VocabMajMin:
		switch c.Quality {
		case model.Dominant7, model.Major7:
			return model.NewChordLabel(int(c.Root), model.Major)
		case model.Minor7:
			return model.NewChordLabel(int(c.Root), model.Minor)
		}
	}
	return c
}

var templates = []struct {
	quality   model.Quality
	intervals []int
}{
	{model.Major, []int{0, 4, 7}},
	{model.Minor, []int{0, 3, 7}},
	{model.Dominant7, []int{0, 4, 7, 10}},
	{model.Major7, []int{0, 4, 7, 11}},
	{model.Minor7, []int{0, 3, 7, 10}},
}

// FromPitchClasses matches a set of sounding pitch classes against the chord
// templates. The best template maximises recall plus precision; earlier
// templates and lower roots win ties.
func FromPitchClasses(pcs []model.PitchClass) model.ChordLabel {
	var set [12]bool
	var size int
	for _, pc := range pcs {
		p := ((int(pc) % 12) + 12) % 12
		if !set[p] {
			set[p] = true
			size++
		}
	}
	if size < 2 {
		return model.NoChordLabel
	}

	best := model.NoChordLabel
	bestScore := math.Inf(-1)
	for _, t := range templates {
		for root := 0; root < 12; root++ {
			var hits int
			for _, iv := range t.intervals {
				if set[(root+iv)%12] {
					hits++
				}
			}
			if hits < 2 || !set[root] {
				continue
			}
			score := float64(hits)/float64(len(t.intervals)) + float64(hits)/float64(size)
			if score > bestScore+1e-9 {
				bestScore = score
				best = model.NewChordLabel(root, t.quality)
			}
		}
	}
	return best
}

// CreateChordKey renders sorted MIDI notes as "60-64-67".
func CreateChordKey(notes []uint8) string {
	sorted := append([]uint8(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

// Change is the chord sounding from Offset (seconds) until the next change.
type Change struct {
	Offset float64
	Label  model.ChordLabel
	Notes  []uint8
}

type reducedEvent struct {
	offset    int64
	isNoteOff bool
	note      uint8
}

const drumChannel = 9

// GetChanges sweeps the note on/off events of every track and emits the
// recognized chord at each point where the sounding notes change.
func GetChanges(s *smf.SMF) (changes []Change, err error) {
	// smf can panic on malformed tracks
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read midi events: %v", r)
		}
	}()

	var events []reducedEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				if channel == drumChannel {
					continue
				}
				// note on with zero velocity is a note off
				events = append(events, reducedEvent{offset: s.TimeAt(absTicks), isNoteOff: velocity == 0, note: key})
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				if channel == drumChannel {
					continue
				}
				events = append(events, reducedEvent{offset: s.TimeAt(absTicks), isNoteOff: true, note: key})
			}
		}
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].offset != events[j].offset {
			return events[i].offset < events[j].offset
		}
		return events[i].isNoteOff && !events[j].isNoteOff
	})

	pressed := make(map[uint8]int)
	for i, evt := range events {
		if evt.isNoteOff {
			if pressed[evt.note] > 1 {
				pressed[evt.note]--
			} else {
				delete(pressed, evt.note)
			}
		} else {
			pressed[evt.note]++
		}

		// only emit once all events at this timestamp are applied
		if i+1 < len(events) && events[i+1].offset == evt.offset {
			continue
		}

		notes := make([]uint8, 0, len(pressed))
		pcs := make([]model.PitchClass, 0, len(pressed))
		for note := range pressed {
			notes = append(notes, note)
			pcs = append(pcs, model.PitchClass(note%12))
		}
		sort.Slice(notes, func(a, b int) bool { return notes[a] < notes[b] })
		label := FromPitchClasses(pcs)

		// offsets are microseconds
		offset := float64(evt.offset) / 1e6
		if n := len(changes); n > 0 && changes[n-1].Label == label {
			continue
		}
		changes = append(changes, Change{Offset: offset, Label: label, Notes: notes})
	}
	return changes, nil
}
