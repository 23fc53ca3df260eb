// Package manifest loads a batch description: every song with its audio
// reference, candidate label sequences and their upstream diagnostics.
//
// The manifest is TOML. Paths are resolved relative to the manifest file.
// Each song is materialized into an independent model.Song so that songs can
// be processed in parallel without shared state.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/labfile"
	"github.com/jsphweid/chordfuse/midi"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/sequence"
	"github.com/pelletier/go-toml/v2"
)

type SourceEntry struct {
	Kind             string   `toml:"kind"`
	ID               string   `toml:"id"`
	Lab              string   `toml:"lab"`
	MIDI             string   `toml:"midi"`
	AlignmentError   *float64 `toml:"alignment_error"`
	ChordProbability *float64 `toml:"chord_probability"`
	Root             *float64 `toml:"root"`
	MinMaj           *float64 `toml:"minmaj"`
	Sevenths         *float64 `toml:"sevenths"`
	ACEMethod        string   `toml:"ace_method"`
}

type SongEntry struct {
	ID       string  `toml:"id"`
	Audio    string  `toml:"audio"`
	Duration float64 `toml:"duration"`
	// Reference is an optional ground-truth .lab used by evaluation.
	Reference  string        `toml:"reference"`
	Vocabulary []string      `toml:"vocabulary"`
	Sources    []SourceEntry `toml:"sources"`
}

type Manifest struct {
	// Conform pads or clips every sequence to the song duration. When false,
	// sequences are passed on as read and duration mismatches fail the song.
	Conform bool        `toml:"conform"`
	Songs   []SongEntry `toml:"songs"`

	dir string
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("parse toml at %d:%d: %w", row, col, err)
		}
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.dir = "."
	return &m, nil
}

func (m *Manifest) validate() error {
	seenSongs := make(map[string]bool, len(m.Songs))
	for i, s := range m.Songs {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("songs[%d]: id is required", i)
		}
		if seenSongs[s.ID] {
			return fmt.Errorf("song %s: duplicate id", s.ID)
		}
		if strings.ContainsAny(s.ID, `/\`) || s.ID == "." || s.ID == ".." {
			return fmt.Errorf("song %s: id must be usable as a file name", s.ID)
		}
		seenSongs[s.ID] = true
		if s.Duration < 0 {
			return fmt.Errorf("song %s: negative duration", s.ID)
		}

		seenSources := make(map[model.SourceRef]bool, len(s.Sources))
		for j, src := range s.Sources {
			kind, err := model.ParseSourceKind(src.Kind)
			if err != nil {
				return fmt.Errorf("song %s: sources[%d]: %w", s.ID, j, err)
			}
			if src.ID == "" {
				return fmt.Errorf("song %s: sources[%d]: id is required", s.ID, j)
			}
			ref := model.SourceRef{Kind: kind, ID: src.ID}
			if seenSources[ref] {
				return fmt.Errorf("song %s: duplicate source %s", s.ID, ref)
			}
			seenSources[ref] = true
			if (src.Lab == "") == (src.MIDI == "") {
				return fmt.Errorf("song %s: source %s: exactly one of lab or midi is required", s.ID, ref)
			}
			if src.MIDI != "" && !kind.IsMIDI() {
				return fmt.Errorf("song %s: source %s: midi files need a midi source kind", s.ID, ref)
			}
			if src.MIDI != "" && s.Duration == 0 {
				return fmt.Errorf("song %s: source %s: midi sources need the song duration", s.ID, ref)
			}
		}
	}
	return nil
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.dir, path)
}

// Song materializes one entry: it reads every candidate sequence and, when
// the entry names one, the reference annotation.
func (m *Manifest) Song(entry SongEntry) (model.Song, *model.LabelSequence, error) {
	song := model.Song{ID: entry.ID, AudioPath: m.resolve(entry.Audio), Duration: entry.Duration}

	for _, sym := range entry.Vocabulary {
		label, err := chord.Parse(sym)
		if err != nil {
			return song, nil, fmt.Errorf("song %s: vocabulary: %w", entry.ID, err)
		}
		song.Vocabulary = append(song.Vocabulary, label)
	}

	// lab sources first so that a missing duration can be taken from them
	for _, src := range entry.Sources {
		if src.Lab == "" {
			continue
		}
		kind, _ := model.ParseSourceKind(src.Kind)
		seq, err := labfile.ReadFile(m.resolve(src.Lab), kind, src.ID)
		if err != nil {
			return song, nil, fmt.Errorf("song %s: %w", entry.ID, err)
		}
		song.Candidates = append(song.Candidates, model.Candidate{Sequence: seq, Diagnostics: diagnostics(src)})
	}
	if song.Duration == 0 {
		for _, c := range song.Candidates {
			song.Duration = max(song.Duration, sequence.Duration(c.Sequence))
		}
	}
	for _, src := range entry.Sources {
		if src.MIDI == "" {
			continue
		}
		kind, _ := model.ParseSourceKind(src.Kind)
		seq, err := midi.ChordSequence(m.resolve(src.MIDI), kind, src.ID, song.Duration)
		if err != nil {
			return song, nil, fmt.Errorf("song %s: %w", entry.ID, err)
		}
		song.Candidates = append(song.Candidates, model.Candidate{Sequence: seq, Diagnostics: diagnostics(src)})
	}

	if m.Conform {
		for i := range song.Candidates {
			song.Candidates[i].Sequence = sequence.Conform(song.Candidates[i].Sequence, song.Duration)
		}
	}

	var reference *model.LabelSequence
	if entry.Reference != "" {
		ref, err := labfile.ReadFile(m.resolve(entry.Reference), model.AudioACE, "reference")
		if err != nil {
			return song, nil, fmt.Errorf("song %s: reference: %w", entry.ID, err)
		}
		reference = &ref
	}
	return song, reference, nil
}

func diagnostics(src SourceEntry) model.DiagnosticFeatures {
	return model.DiagnosticFeatures{
		AlignmentError:   src.AlignmentError,
		ChordProbability: src.ChordProbability,
		Root:             src.Root,
		MinMaj:           src.MinMaj,
		Sevenths:         src.Sevenths,
		ACEMethod:        src.ACEMethod,
	}
}
