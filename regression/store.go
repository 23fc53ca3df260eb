package regression

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/jsphweid/chordfuse/util"
	"github.com/vmihailenco/msgpack/v5"
)

const formatVersion = 1

type modelFile struct {
	Version int    `msgpack:"version"`
	Model   *Model `msgpack:"model"`
}

// Save writes the model, including its sampling seed, to path. Concurrent
// writers are serialized through a lock file next to path.
func (m *Model) Save(path string) error {
	data, err := msgpack.Marshal(modelFile{Version: formatVersion, Model: m})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock model file: %w", err)
	}
	defer lock.Unlock()

	return util.WriteFileAtomic(path, data)
}

func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var f modelFile
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if f.Version != formatVersion || f.Model == nil {
		return nil, fmt.Errorf("decode model %s: unsupported format version %d", path, f.Version)
	}
	// a quality must never drop as alignment improves or the signal rises
	if !admissible(f.Model) {
		return nil, fmt.Errorf("model %s: coefficients %s violate the sign constraints", path, f.Model)
	}
	return f.Model, nil
}

var observationHeader = []string{"song_id", "alignment_error", "signal", "realized"}

// ReadObservations reads delimited training rows with the header
// song_id,alignment_error,signal,realized. Column order follows the header.
func ReadObservations(r io.Reader) ([]Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read observations header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range observationHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("read observations: missing column %q", name)
		}
	}

	var res []Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read observations: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var o Observation
		o.SongID = rec[cols["song_id"]]
		values := []*float64{&o.AlignmentError, &o.Signal, &o.Realized}
		for i, name := range observationHeader[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("read observations line %d: %s: %w", line, name, err)
			}
			*values[i] = v
		}
		res = append(res, o)
	}
	return res, nil
}

// WriteObservations writes rows in the format ReadObservations accepts.
func WriteObservations(w io.Writer, obs []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(observationHeader); err != nil {
		return err
	}
	for _, o := range obs {
		rec := []string{
			o.SongID,
			strconv.FormatFloat(o.AlignmentError, 'g', -1, 64),
			strconv.FormatFloat(o.Signal, 'g', -1, 64),
			strconv.FormatFloat(o.Realized, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
