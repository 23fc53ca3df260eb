package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/export"
	"github.com/jsphweid/chordfuse/model"
)

// Run describes one invocation of the fusion pipeline.
type Run struct {
	ID        string
	CreatedAt time.Time
	Manifest  string
	Policy    string
	ModelPath string
	Songs     int
	Failed    int
}

// SongStatus is the per-song outcome recorded for a run.
type SongStatus struct {
	SongID    string
	Status    string
	ErrorKind string
	Error     string
	FellBack  bool
}

const (
	StatusFused  = "fused"
	StatusFailed = "failed"
)

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRun records results under a fresh run ID, which is returned. The
// run's ID, CreatedAt and counters are filled in from results.
func (s *Store) SaveRun(ctx context.Context, run Run, results []batch.Result) (Run, error) {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC()
	run.Songs = len(results)
	run.Failed = batch.Failed(results)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, manifest, policy, model_path, song_count, failed_count)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.Format(timeLayout),
		nullableString(run.Manifest),
		run.Policy,
		nullableString(run.ModelPath),
		run.Songs,
		run.Failed,
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	for i, res := range results {
		if err := insertSong(ctx, tx, run.ID, i, res); err != nil {
			return Run{}, fmt.Errorf("song %s: %w", res.Song.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

func insertSong(ctx context.Context, tx *sql.Tx, runID string, position int, res batch.Result) error {
	status := StatusFused
	var errMsg string
	if res.Err != nil {
		status = StatusFailed
		errMsg = res.Err.Error()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO songs (run_id, song_id, position, status, error_kind, error_message, fell_back)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Song.ID, position, status,
		nullableString(batch.Classify(res.Err)), nullableString(errMsg), res.FellBack,
	); err != nil {
		return fmt.Errorf("insert song: %w", err)
	}

	for i, row := range export.Rows(res) {
		var predicted sql.NullFloat64
		if row.Predicted.Known {
			predicted = sql.NullFloat64{Float64: row.Predicted.Value, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (run_id, song_id, position, kind, source_id, alignment_error, root,
                 minmaj, sevenths, chord_probability, predicted_quality, selected)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, row.SongID, i, string(row.Kind), row.SourceID,
			nullableFloat(row.AlignmentError), nullableFloat(row.Root), nullableFloat(row.MinMaj),
			nullableFloat(row.Sevenths), nullableFloat(row.ChordProbability), predicted, row.Selected,
		); err != nil {
			return fmt.Errorf("insert source %s/%s: %w", row.Kind, row.SourceID, err)
		}
	}

	if res.Fused == nil {
		return nil
	}
	for i, iv := range res.Fused.Intervals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fused_intervals (run_id, song_id, idx, start_sec, end_sec, label, source_kind, source_id)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, res.Song.ID, i, iv.Start, iv.End, iv.Label.String(),
			string(res.Fused.Kind), res.Fused.ID,
		); err != nil {
			return fmt.Errorf("insert fused interval %d: %w", i, err)
		}
	}
	return nil
}

const runColumns = "id, created_at, manifest, policy, model_path, song_count, failed_count"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		r         Run
		created   string
		manifest  sql.NullString
		modelPath sql.NullString
	)
	if err := scanner.Scan(&r.ID, &created, &manifest, &r.Policy, &modelPath, &r.Songs, &r.Failed); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	r.Manifest = manifest.String
	r.ModelPath = modelPath.String
	return r, nil
}

// Runs lists runs newest first. limit <= 0 lists all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run ID or a unique prefix of one. An empty id
// selects the latest run.
func (s *Store) FindRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	var row *sql.Row
	if id == "" {
		row = s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT 1`)
	} else {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id LIKE ? || '%'`, id).Scan(&n); err != nil {
			return Run{}, fmt.Errorf("find run: %w", err)
		}
		if n > 1 {
			return Run{}, fmt.Errorf("run prefix %q is ambiguous (%d matches)", id, n)
		}
		row = s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%'`, id)
	}
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("find run: %w", err)
	}
	return r, nil
}

// Songs lists the per-song outcomes of a run in the order they were processed.
func (s *Store) Songs(ctx context.Context, runID string) ([]SongStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT song_id, status, error_kind, error_message, fell_back
         FROM songs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var res []SongStatus
	for rows.Next() {
		var (
			st      SongStatus
			kind    sql.NullString
			message sql.NullString
		)
		if err := rows.Scan(&st.SongID, &st.Status, &kind, &message, &st.FellBack); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		st.ErrorKind = kind.String
		st.Error = message.String
		res = append(res, st)
	}
	return res, rows.Err()
}

// SourceRows returns the exported rows of a run, grouped by song in
// processing order.
func (s *Store) SourceRows(ctx context.Context, runID string) ([]export.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src.song_id, src.kind, src.source_id, src.alignment_error, src.root, src.minmaj,
                src.sevenths, src.chord_probability, src.predicted_quality, src.selected
         FROM sources src JOIN songs s ON s.run_id = src.run_id AND s.song_id = src.song_id
         WHERE src.run_id = ?
         ORDER BY s.position, src.position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var res []export.Row
	for rows.Next() {
		var (
			r                                    export.Row
			kind                                 string
			alignErr, root, minmaj, sev, chordPr sql.NullFloat64
			predicted                            sql.NullFloat64
		)
		if err := rows.Scan(&r.SongID, &kind, &r.SourceID, &alignErr, &root, &minmaj, &sev, &chordPr, &predicted, &r.Selected); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		r.Kind = model.SourceKind(kind)
		r.AlignmentError = floatPtr(alignErr)
		r.Root = floatPtr(root)
		r.MinMaj = floatPtr(minmaj)
		r.Sevenths = floatPtr(sev)
		r.ChordProbability = floatPtr(chordPr)
		r.Predicted = model.UnknownQuality
		if predicted.Valid {
			r.Predicted = model.Known(predicted.Float64)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// FusedSequence loads the stored output sequence of one song.
func (s *Store) FusedSequence(ctx context.Context, runID, songID string) (model.LabelSequence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_sec, end_sec, label, source_kind, source_id
         FROM fused_intervals WHERE run_id = ? AND song_id = ? ORDER BY idx`, runID, songID)
	if err != nil {
		return model.LabelSequence{}, fmt.Errorf("load fused sequence: %w", err)
	}
	defer rows.Close()

	var seq model.LabelSequence
	for rows.Next() {
		var (
			iv          model.LabeledInterval
			label, kind string
		)
		if err := rows.Scan(&iv.Start, &iv.End, &label, &kind, &seq.ID); err != nil {
			return model.LabelSequence{}, fmt.Errorf("scan fused interval: %w", err)
		}
		if iv.Label, err = chord.Parse(label); err != nil {
			return model.LabelSequence{}, fmt.Errorf("stored label %q: %w", label, err)
		}
		seq.Kind = model.SourceKind(kind)
		seq.Intervals = append(seq.Intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return model.LabelSequence{}, err
	}
	if len(seq.Intervals) == 0 {
		return model.LabelSequence{}, fmt.Errorf("song %s in run %s: %w", songID, runID, ErrNotFound)
	}
	return seq, nil
}
