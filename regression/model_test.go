package regression

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearObservations(n int, noise float64) []Observation {
	var obs []Observation
	for i := 0; i < n; i++ {
		alignErr := float64(i%7) * 0.15
		signal := 0.2 + float64(i%4)*0.2
		jitter := noise * math.Sin(float64(i)*1.7)
		obs = append(obs, Observation{
			SongID:         fmt.Sprintf("song-%03d", i/2),
			AlignmentError: alignErr,
			Signal:         signal,
			Realized:       0.1 - 0.3*alignErr + 0.8*signal + jitter,
		})
	}
	return obs
}

func TestTrainRecoversLinearRelationship(t *testing.T) {
	m, err := Train(linearObservations(60, 0), TrainOptions{Seed: 1})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("full", m.Form)
	assert.InDelta(0.1, m.Intercept, 1e-9)
	assert.InDelta(-0.3, m.AlignmentCoef, 1e-9)
	assert.InDelta(0.8, m.SignalCoef, 1e-9)
	assert.InDelta(1.0, m.RSquared, 1e-9)
	assert.Equal(30, m.TrainSongs)
	assert.Equal(0, m.ValidationSongs)
	assert.Equal(0.0, m.ValidationRMSE)
}

func TestTrainIsReproducibleForASeed(t *testing.T) {
	obs := linearObservations(80, 0.05)
	a, err := Train(obs, TrainOptions{Seed: 42, TrainSongs: 25})
	require.NoError(t, err)
	b, err := Train(obs, TrainOptions{Seed: 42, TrainSongs: 25})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, uint64(42), a.Seed)
	assert.Equal(t, 25, a.TrainSongs)
	assert.Equal(t, 15, a.ValidationSongs)
	assert.Greater(t, a.ValidationRMSE, 0.0)
}

func TestTrainSplitsBySong(t *testing.T) {
	obs := linearObservations(40, 0)
	train, validation, n, rest := split(obs, TrainOptions{Seed: 3, TrainSongs: 5})

	assert.Equal(t, 5, n)
	assert.Equal(t, 15, rest)
	trainSongs := map[string]bool{}
	for _, o := range train {
		trainSongs[o.SongID] = true
	}
	assert.Len(t, trainSongs, 5)
	for _, o := range validation {
		assert.False(t, trainSongs[o.SongID], "song %s in both sets", o.SongID)
	}
}

func TestTrainFailsWithoutDistinctFeatures(t *testing.T) {
	obs := []Observation{
		{SongID: "a", AlignmentError: 0.1, Signal: 0.5, Realized: 0.4},
		{SongID: "b", AlignmentError: 0.1, Signal: 0.5, Realized: 0.6},
	}
	_, err := Train(obs, TrainOptions{Seed: 1})

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1, insufficient.Distinct)
	assert.Equal(t, "training", insufficient.ErrorKind())

	_, err = Train(nil, TrainOptions{})
	assert.True(t, errors.As(err, &insufficient))
}

func TestTrainConstrainsCoefficientSigns(t *testing.T) {
	// realized quality rises with alignment error here, which must not be learned
	var obs []Observation
	for i := 0; i < 20; i++ {
		alignErr := float64(i) * 0.05
		obs = append(obs, Observation{
			SongID:         fmt.Sprintf("s%d", i),
			AlignmentError: alignErr,
			Signal:         0.5 + 0.01*float64(i%3),
			Realized:       0.2 + alignErr,
		})
	}
	m, err := Train(obs, TrainOptions{Seed: 9})
	require.NoError(t, err)

	assert.LessOrEqual(t, m.AlignmentCoef, 0.0)
	assert.GreaterOrEqual(t, m.SignalCoef, 0.0)
	assert.GreaterOrEqual(t, m.Predict(0, 0.5), m.Predict(1, 0.5))
}

func TestSaveAndLoadKeepsSeed(t *testing.T) {
	m, err := Train(linearObservations(30, 0.02), TrainOptions{Seed: 1234, TrainSongs: 10})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "reliability.msgpack")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
	assert.Equal(t, uint64(1234), loaded.Seed)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadRejectsCoefficientsWithWrongSign(t *testing.T) {
	dir := t.TempDir()
	for name, m := range map[string]*Model{
		"rising with alignment error": {Intercept: 0.2, AlignmentCoef: 0.3, SignalCoef: 0.5, Form: "full"},
		"falling with signal":         {Intercept: 0.2, AlignmentCoef: -0.3, SignalCoef: -0.5, Form: "full"},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".msgpack")
			require.NoError(t, m.Save(path))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "sign constraints")
		})
	}
}

func TestReadObservationsFollowsHeaderOrder(t *testing.T) {
	in := "realized,song_id,signal,alignment_error\n# comment\n0.5, a, 0.7, 0.1\n0.25,b,0.4,0.3\n"
	obs, err := ReadObservations(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Observation{
		{SongID: "a", AlignmentError: 0.1, Signal: 0.7, Realized: 0.5},
		{SongID: "b", AlignmentError: 0.3, Signal: 0.4, Realized: 0.25},
	}, obs)

	var buf bytes.Buffer
	require.NoError(t, WriteObservations(&buf, obs))
	again, err := ReadObservations(&buf)
	require.NoError(t, err)
	assert.Equal(t, obs, again)
}

func TestReadObservationsReportsBadRows(t *testing.T) {
	_, err := ReadObservations(strings.NewReader("song_id,alignment_error,signal\n"))
	assert.ErrorContains(t, err, "realized")

	_, err = ReadObservations(strings.NewReader("song_id,alignment_error,signal,realized\na,x,0.1,0.2\n"))
	assert.ErrorContains(t, err, "alignment_error")
}
