package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/db"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/selection"
	"github.com/jsphweid/chordfuse/testsupport"
	"github.com/jsphweid/chordfuse/util"
)

func openStore(t *testing.T) (*db.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	store, err := db.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func sampleResults(t *testing.T) []batch.Result {
	audio := testsupport.Sequence(t, model.AudioACE, "chordino", []float64{0, 2, 4}, "C:maj", "G:7")
	midi := testsupport.Sequence(t, model.MIDIBarAligned, "m1", []float64{0, 4}, "A:min")
	fused := testsupport.Sequence(t, model.Fused, "fused", []float64{0, 2, 4}, "A:min", "G:7")

	ok := batch.Result{
		Song: model.Song{ID: "s1", Candidates: []model.Candidate{
			{Sequence: audio},
			{Sequence: midi, Diagnostics: model.DiagnosticFeatures{AlignmentError: util.Ptr(0.25), Root: util.Ptr(0.9)}},
		}},
		Scores:   model.Scores{audio.Ref(): model.Known(0.6), midi.Ref(): model.UnknownQuality},
		Selected: []model.LabelSequence{audio, midi},
		Fused:    &fused,
	}
	failed := batch.Result{
		Song: model.Song{ID: "s0"},
		Err:  &selection.NoCandidatesError{SongID: "s0"},
	}
	return []batch.Result{ok, failed}
}

func TestSaveRunRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	run, err := store.SaveRun(ctx, db.Run{Manifest: "songs.toml", Policy: "expected_best"}, sampleResults(t))
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, 2, run.Songs)
	assert.Equal(t, 1, run.Failed)

	found, err := store.FindRun(ctx, run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, "songs.toml", found.Manifest)
	assert.Empty(t, found.ModelPath)
	assert.WithinDuration(t, run.CreatedAt, found.CreatedAt, time.Millisecond)

	songs, err := store.Songs(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, db.SongStatus{SongID: "s1", Status: db.StatusFused}, songs[0])
	assert.Equal(t, "s0", songs[1].SongID)
	assert.Equal(t, db.StatusFailed, songs[1].Status)
	assert.Equal(t, "no_data", songs[1].ErrorKind)

	rows, err := store.SourceRows(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.AudioACE, rows[0].Kind)
	assert.Equal(t, model.Known(0.6), rows[0].Predicted)
	assert.True(t, rows[0].Selected)
	assert.Equal(t, 0.25, *rows[1].AlignmentError)
	assert.Nil(t, rows[1].MinMaj)
	assert.False(t, rows[1].Predicted.Known)

	seq, err := store.FusedSequence(ctx, run.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Fused, seq.Kind)
	assert.Equal(t, "fused", seq.ID)
	assert.Equal(t, []string{"0-2 A:min", "2-4 G:7"}, testsupport.Labels(seq))

	_, err = store.FusedSequence(ctx, run.ID, "s0")
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestFindRunLatestAndMissing(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	_, err := store.FindRun(ctx, "")
	assert.ErrorIs(t, err, db.ErrNotFound)

	first, err := store.SaveRun(ctx, db.Run{Policy: "pass_through"}, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := store.SaveRun(ctx, db.Run{Policy: "expected_best"}, nil)
	require.NoError(t, err)

	latest, err := store.FindRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{second.ID, first.ID}, []string{runs[0].ID, runs[1].ID})

	runs, err = store.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = store.FindRun(ctx, "zzzz")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestReopenKeepsRuns(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()
	run, err := store.SaveRun(ctx, db.Run{Policy: "expected_best"}, sampleResults(t))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := db.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Songs)
}
