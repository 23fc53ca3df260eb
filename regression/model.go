package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jsphweid/chordfuse/util"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Observation is one historical source: its diagnostics and the quality it
// actually achieved against a reference annotation.
type Observation struct {
	SongID         string
	AlignmentError float64
	Signal         float64
	Realized       float64
}

type TrainOptions struct {
	Seed uint64
	// TrainSongs is the number of songs sampled for fitting. Zero, or more
	// than the number of songs, fits on everything.
	TrainSongs int
}

// Model is an immutable linear predictor:
// Intercept + AlignmentCoef*alignmentError + SignalCoef*signal.
type Model struct {
	Intercept     float64 `msgpack:"intercept"`
	AlignmentCoef float64 `msgpack:"alignment_coef"`
	SignalCoef    float64 `msgpack:"signal_coef"`
	Form          string  `msgpack:"form"`

	Seed            uint64  `msgpack:"seed"`
	TrainSongs      int     `msgpack:"train_songs"`
	ValidationSongs int     `msgpack:"validation_songs"`
	RSquared        float64 `msgpack:"r_squared"`
	ValidationRMSE  float64 `msgpack:"validation_rmse"`
}

func (m *Model) Predict(alignmentError, signal float64) float64 {
	return m.Intercept + m.AlignmentCoef*alignmentError + m.SignalCoef*signal
}

func (m *Model) String() string {
	return fmt.Sprintf("%s: %.4f %+.4f*alignment_error %+.4f*signal (seed=%d train=%d validation=%d r2=%.3f rmse=%.4f)",
		m.Form, m.Intercept, m.AlignmentCoef, m.SignalCoef, m.Seed, m.TrainSongs, m.ValidationSongs, m.RSquared, m.ValidationRMSE)
}

// Train samples songs for fitting with opts.Seed, fits the constrained linear
// model on them and reports the error on the held-out songs.
func Train(observations []Observation, opts TrainOptions) (*Model, error) {
	train, validation, trainSongs, validationSongs := split(observations, opts)

	if distinct := distinctPairs(train); distinct < 2 {
		return nil, &InsufficientDataError{Distinct: distinct, Observations: len(train)}
	}

	best, err := fit(train)
	if err != nil {
		return nil, err
	}
	best.Seed = opts.Seed
	best.TrainSongs = trainSongs
	best.ValidationSongs = validationSongs
	best.RSquared = rSquared(best, train)
	best.ValidationRMSE = rmse(best, validation)
	return best, nil
}

func split(observations []Observation, opts TrainOptions) (train, validation []Observation, trainSongs, validationSongs int) {
	bySong := make(map[string][]Observation)
	for _, o := range observations {
		bySong[o.SongID] = append(bySong[o.SongID], o)
	}
	songs := util.GetKeys(bySong)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})

	n := opts.TrainSongs
	if n <= 0 || n > len(songs) {
		n = len(songs)
	}
	for i, s := range songs {
		if i < n {
			train = append(train, bySong[s]...)
		} else {
			validation = append(validation, bySong[s]...)
		}
	}
	return train, validation, n, len(songs) - n
}

func distinctPairs(obs []Observation) int {
	seen := make(map[[2]float64]struct{})
	for _, o := range obs {
		seen[[2]float64{o.AlignmentError, o.Signal}] = struct{}{}
	}
	return len(seen)
}

// fit tries the full, signal-only, alignment-only and constant models and
// keeps the admissible one with the smallest squared error. A model is
// admissible when it is finite, AlignmentCoef <= 0 and SignalCoef >= 0.
func fit(obs []Observation) (*Model, error) {
	x1 := make([]float64, len(obs))
	x2 := make([]float64, len(obs))
	y := make([]float64, len(obs))
	for i, o := range obs {
		x1[i], x2[i], y[i] = o.AlignmentError, o.Signal, o.Realized
	}

	candidates := []*Model{{Intercept: stat.Mean(y, nil), Form: "constant"}}
	alpha, beta := stat.LinearRegression(x2, y, nil, false)
	candidates = append(candidates, &Model{Intercept: alpha, SignalCoef: beta, Form: "signal"})
	alpha, beta = stat.LinearRegression(x1, y, nil, false)
	candidates = append(candidates, &Model{Intercept: alpha, AlignmentCoef: beta, Form: "alignment"})
	if full, err := fitFull(x1, x2, y); err == nil {
		candidates = append(candidates, full)
	}

	var best *Model
	bestSSE := math.Inf(1)
	for _, c := range candidates {
		if !admissible(c) {
			continue
		}
		sse := squaredError(c, obs)
		// strict improvement keeps the simpler model on ties
		if sse < bestSSE-1e-12 {
			best, bestSSE = c, sse
		}
	}
	if best == nil {
		return nil, errors.New("fit reliability model: no admissible fit")
	}
	return best, nil
}

func fitFull(x1, x2, y []float64) (*Model, error) {
	n := len(y)
	design := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, x1[i])
		design.Set(i, 2, x2[i])
	}
	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("solve least squares: %w", err)
	}
	return &Model{
		Intercept:     beta.AtVec(0),
		AlignmentCoef: beta.AtVec(1),
		SignalCoef:    beta.AtVec(2),
		Form:          "full",
	}, nil
}

func admissible(m *Model) bool {
	coefs := []float64{m.Intercept, m.AlignmentCoef, m.SignalCoef}
	if floats.HasNaN(coefs) {
		return false
	}
	for _, c := range coefs {
		if math.IsInf(c, 0) {
			return false
		}
	}
	return m.AlignmentCoef <= 0 && m.SignalCoef >= 0
}

func squaredError(m *Model, obs []Observation) float64 {
	var sse float64
	for _, o := range obs {
		d := o.Realized - m.Predict(o.AlignmentError, o.Signal)
		sse += d * d
	}
	return sse
}

func rSquared(m *Model, obs []Observation) float64 {
	y := make([]float64, len(obs))
	for i, o := range obs {
		y[i] = o.Realized
	}
	mean := stat.Mean(y, nil)
	var total float64
	for _, v := range y {
		total += (v - mean) * (v - mean)
	}
	if total == 0 {
		return 0
	}
	return 1 - squaredError(m, obs)/total
}

func rmse(m *Model, obs []Observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	return math.Sqrt(squaredError(m, obs) / float64(len(obs)))
}
