package quality_test

import (
	"fmt"
	"testing"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/quality"
	"github.com/jsphweid/chordfuse/regression"
	"github.com/jsphweid/chordfuse/testsupport"
	"github.com/jsphweid/chordfuse/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func midiFeatures(alignErr, sub float64) model.DiagnosticFeatures {
	return model.DiagnosticFeatures{
		AlignmentError: util.Ptr(alignErr),
		Root:           util.Ptr(sub),
		MinMaj:         util.Ptr(sub),
		Sevenths:       util.Ptr(sub),
	}
}

func trainedModel(t *testing.T) *regression.Model {
	t.Helper()
	var obs []regression.Observation
	for i := 0; i < 40; i++ {
		alignErr := float64(i%8) * 0.1
		signal := 0.3 + float64(i%5)*0.15
		obs = append(obs, regression.Observation{
			SongID:         fmt.Sprintf("song-%02d", i),
			AlignmentError: alignErr,
			Signal:         signal,
			Realized:       0.2 - 0.4*alignErr + 0.7*signal,
		})
	}
	m, err := regression.Train(obs, regression.TrainOptions{Seed: 7, TrainSongs: 30})
	require.NoError(t, err)
	return m
}

func TestMIDIQualityIsMonotonicInAlignmentError(t *testing.T) {
	estimators := map[string]*quality.Estimator{
		"fallback": quality.NewEstimator(),
		"model":    quality.NewEstimator(quality.WithPredictor(trainedModel(t))),
	}

	for name, e := range estimators {
		t.Run(name, func(t *testing.T) {
			for _, sub := range []float64{0.1, 0.5, 0.9} {
				prev := e.Estimate(model.MIDIBeatAligned, midiFeatures(3.0, sub))
				require.True(t, prev.Known)
				for alignErr := 2.9; alignErr >= 0; alignErr -= 0.1 {
					q := e.Estimate(model.MIDIBeatAligned, midiFeatures(alignErr, sub))
					assert.GreaterOrEqual(t, q.Value, prev.Value, "sub=%v err=%v", sub, alignErr)
					prev = q
				}
			}
		})
	}
}

func TestMIDIQualityIsMonotonicInSubScores(t *testing.T) {
	e := quality.NewEstimator(quality.WithPredictor(trainedModel(t)))
	prev := e.Estimate(model.MIDIBarAligned, midiFeatures(0.3, 0))
	for sub := 0.05; sub <= 1; sub += 0.05 {
		q := e.Estimate(model.MIDIBarAligned, midiFeatures(0.3, sub))
		assert.GreaterOrEqual(t, q.Value, prev.Value)
		prev = q
	}
}

func TestMissingSubScoresYieldUnknown(t *testing.T) {
	e := quality.NewEstimator()
	f := midiFeatures(0.2, 0.8)
	f.Sevenths = nil

	assert.Equal(t, model.UnknownQuality, e.Estimate(model.MIDIBarAligned, f))
	assert.Equal(t, model.UnknownQuality, e.Estimate(model.MIDIBarAligned, model.DiagnosticFeatures{}))
	assert.Equal(t, model.UnknownQuality, e.Estimate(model.TabAligned, model.DiagnosticFeatures{}))
}

func TestTabQualityIsClampedChordProbability(t *testing.T) {
	e := quality.NewEstimator()
	q := e.Estimate(model.TabAligned, model.DiagnosticFeatures{ChordProbability: util.Ptr(0.42), AlignmentError: util.Ptr(9.0)})
	assert.Equal(t, model.Known(0.42), q)
	q = e.Estimate(model.TabAligned, model.DiagnosticFeatures{ChordProbability: util.Ptr(1.3)})
	assert.Equal(t, model.Known(1.0), q)
}

func TestAudioQualityUsesMethodPrior(t *testing.T) {
	e := quality.NewEstimator(
		quality.WithAudioPrior(0.5),
		quality.WithAudioPriors(map[string]float64{"chordify": 0.72}),
	)
	assert.Equal(t, model.Known(0.72), e.Estimate(model.AudioACE, model.DiagnosticFeatures{ACEMethod: "chordify"}))
	assert.Equal(t, model.Known(0.5), e.Estimate(model.AudioACE, model.DiagnosticFeatures{ACEMethod: "other"}))
}

func TestTabChordProbability(t *testing.T) {
	audio := testsupport.Sequence(t, model.AudioACE, "a", []float64{0, 1, 3, 4, 6}, "N", "C:maj7", "A:min", "E:maj")
	vocab := []model.ChordLabel{chord.MustParse("C"), chord.MustParse("Am7")}

	// 3 of 5 chord seconds fall inside the vocabulary
	assert.InDelta(t, 0.6, quality.TabChordProbability(vocab, audio), 1e-12)
	assert.Equal(t, 0.0, quality.TabChordProbability(vocab, model.LabelSequence{}))
}

func TestScoreAllDerivesTabSignalFromVocabulary(t *testing.T) {
	audio := testsupport.Sequence(t, model.AudioACE, "a", []float64{0, 2, 4}, "C:maj", "G:maj")
	tab := testsupport.Sequence(t, model.TabAligned, "t", []float64{0, 2, 4}, "C:maj", "F:maj")
	song := model.Song{
		ID:         "s",
		Duration:   4,
		Vocabulary: []model.ChordLabel{chord.MustParse("C"), chord.MustParse("F")},
		Candidates: []model.Candidate{{Sequence: audio}, {Sequence: tab}},
	}

	scores := quality.NewEstimator().ScoreAll(song)
	assert.Equal(t, model.Known(0.5), scores[tab.Ref()])
	assert.True(t, scores[audio.Ref()].Known)
}
