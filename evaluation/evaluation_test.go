package evaluation

import (
	"testing"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/testsupport"
	"github.com/jsphweid/chordfuse/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRPerVocabulary(t *testing.T) {
	ref := testsupport.Sequence(t, model.AudioACE, "ref", []float64{0, 2, 4, 8}, "C:maj", "A:min7", "G:7")
	est := testsupport.Sequence(t, model.AudioACE, "est", []float64{0, 1, 4, 8}, "C:maj", "A:min", "G:maj")

	assert := assert.New(t)
	// [0,1) C=C, [1,2) Am vs C, [2,4) Am vs Am7, [4,8) G vs G7
	assert.InDelta(7.0/8, CSR(est, ref, chord.VocabMajMin), 1e-12)
	assert.InDelta(1.0/8, CSR(est, ref, chord.VocabSevenths), 1e-12)
	assert.InDelta(7.0/8, CSR(est, ref, chord.VocabRoot), 1e-12)
	assert.Equal(1.0, CSR(ref, ref, chord.VocabSevenths))
}

func TestCSRConformsShortEstimate(t *testing.T) {
	ref := testsupport.Sequence(t, model.AudioACE, "ref", []float64{0, 4}, "C:maj")
	est := testsupport.Sequence(t, model.TabAligned, "est", []float64{0, 3}, "C:maj")
	assert.InDelta(t, 0.75, CSR(est, ref, chord.VocabMajMin), 1e-12)
}

func TestWCSRWeightsByDuration(t *testing.T) {
	scores := []SongScore{{SongID: "a", Duration: 100, CSR: 0.9}, {SongID: "b", Duration: 300, CSR: 0.5}}
	assert.InDelta(t, 0.6, WCSR(scores), 1e-12)
	assert.Equal(t, 0.0, WCSR(nil))
}

func TestObservationsUseMIDICandidatesOnly(t *testing.T) {
	ref := testsupport.Sequence(t, model.AudioACE, "ref", []float64{0, 2, 4}, "C:maj", "G:maj")
	midi := testsupport.Sequence(t, model.MIDIBarAligned, "m", []float64{0, 2, 4}, "C:maj", "E:min")
	incomplete := testsupport.Sequence(t, model.MIDIBeatAligned, "i", []float64{0, 4}, "C:maj")
	tab := testsupport.Sequence(t, model.TabAligned, "t", []float64{0, 4}, "C:maj")

	song := model.Song{ID: "song", Duration: 4, Candidates: []model.Candidate{
		{Sequence: midi, Diagnostics: model.DiagnosticFeatures{
			AlignmentError: util.Ptr(0.2), Root: util.Ptr(0.9), MinMaj: util.Ptr(0.6), Sevenths: util.Ptr(0.3),
		}},
		{Sequence: incomplete, Diagnostics: model.DiagnosticFeatures{AlignmentError: util.Ptr(0.1), Root: util.Ptr(1.0)}},
		{Sequence: tab, Diagnostics: model.DiagnosticFeatures{ChordProbability: util.Ptr(0.8)}},
	}}

	obs := Observations(song, ref, chord.VocabMajMin)
	require.Len(t, obs, 1)
	assert.Equal(t, "song", obs[0].SongID)
	assert.Equal(t, 0.2, obs[0].AlignmentError)
	assert.InDelta(t, 0.6, obs[0].Signal, 1e-12)
	assert.InDelta(t, 0.5, obs[0].Realized, 1e-12)
}
