package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleManifest = `
conform = true

[[songs]]
id = "let_it_be"
audio = "audio/let_it_be.flac"
reference = "ref/let_it_be.lab"
vocabulary = ["C", "G", "Am", "F"]

  [[songs.sources]]
  kind = "audio_ace"
  id = "chordino"
  lab = "ace/let_it_be.lab"
  ace_method = "chordino"

  [[songs.sources]]
  kind = "midi_bar_aligned"
  id = "let_it_be_1.mid"
  lab = "midi/let_it_be_1.lab"
  alignment_error = 0.12
  root = 0.8
  minmaj = 0.75
  sevenths = 0.6

  [[songs.sources]]
  kind = "tab_aligned"
  id = "ug_1"
  lab = "tabs/ug_1.lab"
`

func TestLoadBuildsSongs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ace", "let_it_be.lab"), "0 2 C:maj\n2 4 G:maj\n")
	writeFile(t, filepath.Join(dir, "midi", "let_it_be_1.lab"), "0 2 C:maj\n2 3.5 G:maj\n")
	writeFile(t, filepath.Join(dir, "tabs", "ug_1.lab"), "0 4.5 C\n")
	writeFile(t, filepath.Join(dir, "ref", "let_it_be.lab"), "0 4 C:maj\n")
	path := filepath.Join(dir, "manifest.toml")
	writeFile(t, path, sampleManifest)

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Songs, 1)

	song, ref, err := m.Song(m.Songs[0])
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("let_it_be", song.ID)
	assert.Equal(filepath.Join(dir, "audio", "let_it_be.flac"), song.AudioPath)
	assert.Equal(4.5, song.Duration)
	assert.Len(song.Vocabulary, 4)
	require.Len(t, song.Candidates, 3)

	midi := song.Candidates[1]
	assert.Equal(model.MIDIBarAligned, midi.Sequence.Kind)
	assert.Equal([]string{"0-2 C:maj", "2-3.5 G:maj", "3.5-4.5 N"}, testsupport.Labels(midi.Sequence))
	require.NotNil(t, midi.Diagnostics.AlignmentError)
	assert.Equal(0.12, *midi.Diagnostics.AlignmentError)
	assert.Nil(midi.Diagnostics.ChordProbability)
	assert.Equal("chordino", song.Candidates[0].Diagnostics.ACEMethod)

	require.NotNil(t, ref)
	assert.Equal([]string{"0-4 C:maj"}, testsupport.Labels(*ref))
}

func TestParseRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"missing id": `[[songs]]` + "\n" + `duration = 1.0`,
		"duplicate song": `
[[songs]]
id = "a"
[[songs]]
id = "a"`,
		"bad kind": `
[[songs]]
id = "a"
  [[songs.sources]]
  kind = "radio"
  id = "x"
  lab = "x.lab"`,
		"lab and midi": `
[[songs]]
id = "a"
duration = 3.0
  [[songs.sources]]
  kind = "midi_bar_aligned"
  id = "x"
  lab = "x.lab"
  midi = "x.mid"`,
		"midi without duration": `
[[songs]]
id = "a"
  [[songs.sources]]
  kind = "midi_beat_aligned"
  id = "x"
  midi = "x.mid"`,
		"duplicate source": `
[[songs]]
id = "a"
  [[songs.sources]]
  kind = "tab_aligned"
  id = "x"
  lab = "x.lab"
  [[songs.sources]]
  kind = "tab_aligned"
  id = "x"
  lab = "y.lab"`,
		"not toml":           `songs = [`,
		"id with separator":  `[[songs]]` + "\n" + `id = "beatles/help"`,
		"id escaping output": `[[songs]]` + "\n" + `id = "../x"`,
		"id with backslash":  `[[songs]]` + "\n" + `id = 'a\b'`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestSongWithoutConformKeepsSequences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lab"), "0 4 C:maj\n")
	writeFile(t, filepath.Join(dir, "b.lab"), "0 3 C:maj\n")
	path := filepath.Join(dir, "m.toml")
	writeFile(t, path, `
[[songs]]
id = "s"
duration = 4.0
  [[songs.sources]]
  kind = "audio_ace"
  id = "a"
  lab = "a.lab"
  [[songs.sources]]
  kind = "tab_aligned"
  id = "b"
  lab = "b.lab"
`)

	m, err := Load(path)
	require.NoError(t, err)
	song, ref, err := m.Song(m.Songs[0])
	require.NoError(t, err)
	assert.Nil(t, ref)
	assert.Equal(t, []string{"0-3 C:maj"}, testsupport.Labels(song.Candidates[1].Sequence))
}

func TestSongReportsMissingLab(t *testing.T) {
	m, err := Parse([]byte(`
[[songs]]
id = "s"
  [[songs.sources]]
  kind = "audio_ace"
  id = "a"
  lab = "does-not-exist.lab"
`))
	require.NoError(t, err)
	_, _, err = m.Song(m.Songs[0])
	assert.ErrorContains(t, err, "song s")
}
