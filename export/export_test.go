package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/export"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/testsupport"
	"github.com/jsphweid/chordfuse/util"
)

func sampleResult(t *testing.T) batch.Result {
	audio := testsupport.Sequence(t, model.AudioACE, "chordino", []float64{0, 4}, "C:maj")
	midi := testsupport.Sequence(t, model.MIDIBeatAligned, "a,b.mid", []float64{0, 4}, "A:min")
	tab := testsupport.Sequence(t, model.TabAligned, "tab1", []float64{0, 4}, "A:min")
	return batch.Result{
		Song: model.Song{ID: "let_it_be", Candidates: []model.Candidate{
			{Sequence: audio},
			{Sequence: midi, Diagnostics: model.DiagnosticFeatures{
				AlignmentError: util.Ptr(0.12),
				Root:           util.Ptr(0.8),
				MinMaj:         util.Ptr(0.75),
				Sevenths:       util.Ptr(0.6),
			}},
			{Sequence: tab},
		}},
		Scores: model.Scores{
			audio.Ref(): model.Known(0.6),
			midi.Ref():  model.Known(0.5),
			tab.Ref():   model.UnknownQuality,
		},
		Selected: []model.LabelSequence{audio, midi},
	}
}

func TestRowsOnePerSource(t *testing.T) {
	rows := export.Rows(sampleResult(t))
	require.Len(t, rows, 3)

	assert.Equal(t, "let_it_be", rows[1].SongID)
	assert.Equal(t, model.MIDIBeatAligned, rows[1].Kind)
	assert.True(t, rows[0].Selected)
	assert.True(t, rows[1].Selected)
	assert.False(t, rows[2].Selected)
	assert.False(t, rows[2].Predicted.Known)

	assert.Equal(t, []string{
		"let_it_be", "midi_beat_aligned", "a,b.mid", "0.12", "0.8", "0.75", "0.6", "", "0.5", "true",
	}, rows[1].Strings())
	assert.Equal(t, []string{
		"let_it_be", "tab_aligned", "tab1", "", "", "", "", "", "", "false",
	}, rows[2].Strings())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, export.Rows(sampleResult(t))))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.Equal(t, "let_it_be,audio_ace,chordino,,,,,,0.6,true", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `let_it_be,midi_beat_aligned,"a\,b.mid",0.12,`))
}

func TestAllRowsAndTable(t *testing.T) {
	res := sampleResult(t)
	rows := export.AllRows([]batch.Result{res, res})
	assert.Len(t, rows, 6)

	out := export.RenderTable(rows)
	assert.Contains(t, out, "chordino")
	assert.Contains(t, out, "╭")
}
