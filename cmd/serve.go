package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/fusion"
	"github.com/jsphweid/chordfuse/logging"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/selection"
	"github.com/jsphweid/chordfuse/sequence"
)

const maxRequestBytes = 8 << 20

var serveBind string

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "Listen address (default server.bind)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves fusion over HTTP",
	Long:  `Serves POST /fuse, POST /rank and GET /healthz.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	addr := serveBind
	if addr == "" {
		addr = cfg.Server.Bind
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(NewRouter(p, logger))

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type server struct {
	pipeline *batch.Pipeline
	logger   *slog.Logger
}

// NewRouter exposes a pipeline over HTTP.
func NewRouter(p *batch.Pipeline, l *slog.Logger) http.Handler {
	if l == nil {
		l = logging.NewNop()
	}
	s := &server{pipeline: p, logger: l.With(logging.FieldComponent, "http")}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/fuse", s.handleFuse).Methods(http.MethodPost)
	router.HandleFunc("/rank", s.handleRank).Methods(http.MethodPost)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFuse(w http.ResponseWriter, r *http.Request) {
	song, ok := s.decodeSong(w, r)
	if !ok {
		return
	}
	res := s.pipeline.Process(song)
	if res.Err != nil {
		s.writeError(w, song.ID, res.Err)
		return
	}

	body := model.FuseResponse{
		SongID:   song.ID,
		Selected: make([]model.SelectedSource, 0, len(res.Selected)),
		Fused:    toIntervalBodies(*res.Fused),
	}
	for _, seq := range res.Selected {
		body.Selected = append(body.Selected, selectedSource(seq.Ref(), res.Scores[seq.Ref()]))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) handleRank(w http.ResponseWriter, r *http.Request) {
	song, ok := s.decodeSong(w, r)
	if !ok {
		return
	}
	candidates := song.Sequences()
	if len(candidates) == 0 {
		s.writeError(w, song.ID, &selection.NoCandidatesError{SongID: song.ID})
		return
	}
	duration := song.Duration
	if duration == 0 {
		for _, c := range candidates {
			duration = max(duration, sequence.Duration(c))
		}
	}
	if err := fusion.CheckDuration(candidates, duration, s.pipeline.Epsilon); err != nil {
		s.writeError(w, song.ID, fmt.Errorf("song %s: %w", song.ID, err))
		return
	}

	scores := s.pipeline.Estimator.ScoreAll(song)
	body := model.RankResponse{SongID: song.ID, Ranking: []model.SelectedSource{}}
	for _, group := range selection.Rank(candidates, scores, s.pipeline.Epsilon) {
		for _, ranked := range group.Ranked {
			body.Ranking = append(body.Ranking, selectedSource(ranked.Sequence.Ref(), ranked.Quality))
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) decodeSong(w http.ResponseWriter, r *http.Request) (model.Song, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "could not read request body"})
		return model.Song{}, false
	}
	var input model.SongRequestBody
	if err := json.Unmarshal(data, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return model.Song{}, false
	}
	song, err := songFromRequest(input)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return model.Song{}, false
	}
	return song, true
}

func (s *server) writeError(w http.ResponseWriter, songID string, err error) {
	kind := batch.Classify(err)
	status := http.StatusInternalServerError
	switch kind {
	case "no_data", "inconsistent":
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("request failed", logging.FieldSongID, songID, logging.FieldErrorKind, kind, logging.Error(err))
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Kind: kind})
}

// songFromRequest converts a request body into a song. When a duration is
// given every sequence is conformed to it.
func songFromRequest(body model.SongRequestBody) (model.Song, error) {
	if body.SongID == "" {
		return model.Song{}, errors.New("song_id is required")
	}
	if body.Duration < 0 {
		return model.Song{}, errors.New("duration must not be negative")
	}
	song := model.Song{ID: body.SongID, Duration: body.Duration}
	seen := make(map[model.SourceRef]bool, len(body.Sources))

	for i, src := range body.Sources {
		kind, err := model.ParseSourceKind(src.Kind)
		if err != nil {
			return model.Song{}, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if src.ID == "" {
			return model.Song{}, fmt.Errorf("sources[%d]: id is required", i)
		}
		seq := model.LabelSequence{Kind: kind, ID: src.ID}
		if seen[seq.Ref()] {
			return model.Song{}, fmt.Errorf("sources[%d]: duplicate source %s", i, seq.Ref())
		}
		seen[seq.Ref()] = true

		for j, iv := range src.Intervals {
			label, err := chord.Parse(iv.Label)
			if err != nil {
				return model.Song{}, fmt.Errorf("sources[%d].intervals[%d]: %w", i, j, err)
			}
			seq.Intervals = append(seq.Intervals, model.LabeledInterval{Start: iv.Start, End: iv.End, Label: label})
		}
		if body.Duration > 0 {
			seq = sequence.Conform(seq, body.Duration)
		}
		song.Candidates = append(song.Candidates, model.Candidate{
			Sequence: seq,
			Diagnostics: model.DiagnosticFeatures{
				AlignmentError:   src.AlignmentError,
				ChordProbability: src.ChordProbability,
				Root:             src.Root,
				MinMaj:           src.MinMaj,
				Sevenths:         src.Sevenths,
				ACEMethod:        src.ACEMethod,
			},
		})
	}
	return song, nil
}

func selectedSource(ref model.SourceRef, q model.QualityScore) model.SelectedSource {
	return model.SelectedSource{Kind: string(ref.Kind), ID: ref.ID, Quality: q.Value, Known: q.Known}
}

func toIntervalBodies(seq model.LabelSequence) []model.IntervalBody {
	res := make([]model.IntervalBody, 0, len(seq.Intervals))
	for _, iv := range seq.Intervals {
		res = append(res, model.IntervalBody{Start: iv.Start, End: iv.End, Label: iv.Label.String()})
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
