// Package labfile reads and writes chord annotations in the .lab text format:
// one "start end label" line per interval, whitespace separated, times in seconds.
package labfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/util"
)

func Read(r io.Reader, kind model.SourceKind, id string) (model.LabelSequence, error) {
	seq := model.LabelSequence{Kind: kind, ID: id}
	scanner := bufio.NewScanner(r)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return seq, fmt.Errorf("%s line %d: expected start, end and label", id, lineNum)
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return seq, fmt.Errorf("%s line %d: start: %w", id, lineNum, err)
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return seq, fmt.Errorf("%s line %d: end: %w", id, lineNum, err)
		}
		label, err := chord.Parse(strings.Join(fields[2:], " "))
		if err != nil {
			return seq, fmt.Errorf("%s line %d: %w", id, lineNum, err)
		}
		// zero-length rows appear in some exports and carry no duration
		if end <= start {
			continue
		}
		seq.Intervals = append(seq.Intervals, model.LabeledInterval{Start: start, End: end, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return seq, fmt.Errorf("read %s: %w", id, err)
	}
	return seq, nil
}

func ReadFile(path string, kind model.SourceKind, id string) (model.LabelSequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.LabelSequence{}, fmt.Errorf("open lab file: %w", err)
	}
	defer f.Close()
	return Read(f, kind, id)
}

func Write(w io.Writer, seq model.LabelSequence) error {
	bw := bufio.NewWriter(w)
	for _, iv := range seq.Intervals {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", formatTime(iv.Start), formatTime(iv.End), iv.Label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteFile(path string, seq model.LabelSequence) error {
	var sb strings.Builder
	if err := Write(&sb, seq); err != nil {
		return err
	}
	return util.WriteFileAtomic(path, []byte(sb.String()))
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', 6, 64)
}
