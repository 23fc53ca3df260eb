// Package export flattens batch results into one row per song source and
// renders them as CSV or as a terminal table.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jsphweid/chordfuse/batch"
	"github.com/jsphweid/chordfuse/model"
)

var Header = []string{
	"song_id",
	"source_kind",
	"source_id",
	"alignment_error",
	"root",
	"minmaj",
	"sevenths",
	"chord_probability",
	"predicted_quality",
	"selected",
}

// numeric columns are right-aligned in the terminal table
var numeric = map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true, 8: true}

type Row struct {
	SongID           string
	Kind             model.SourceKind
	SourceID         string
	AlignmentError   *float64
	Root             *float64
	MinMaj           *float64
	Sevenths         *float64
	ChordProbability *float64
	Predicted        model.QualityScore
	Selected         bool
}

// Rows returns one row per candidate of the result's song, in candidate order.
func Rows(res batch.Result) []Row {
	rows := make([]Row, 0, len(res.Song.Candidates))
	for _, c := range res.Song.Candidates {
		ref := c.Sequence.Ref()
		f := c.Diagnostics
		rows = append(rows, Row{
			SongID:           res.Song.ID,
			Kind:             ref.Kind,
			SourceID:         ref.ID,
			AlignmentError:   f.AlignmentError,
			Root:             f.Root,
			MinMaj:           f.MinMaj,
			Sevenths:         f.Sevenths,
			ChordProbability: f.ChordProbability,
			Predicted:        res.Scores[ref],
			Selected:         res.IsSelected(ref),
		})
	}
	return rows
}

// AllRows concatenates Rows over results.
func AllRows(results []batch.Result) []Row {
	var rows []Row
	for _, r := range results {
		rows = append(rows, Rows(r)...)
	}
	return rows
}

// Strings renders the row's cells in Header order. Missing values are empty.
func (r Row) Strings() []string {
	predicted := ""
	if r.Predicted.Known {
		predicted = formatFloat(r.Predicted.Value)
	}
	return []string{
		r.SongID,
		string(r.Kind),
		r.SourceID,
		formatOptional(r.AlignmentError),
		formatOptional(r.Root),
		formatOptional(r.MinMaj),
		formatOptional(r.Sevenths),
		formatOptional(r.ChordProbability),
		predicted,
		strconv.FormatBool(r.Selected),
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newWriter(rows []Row) table.Writer {
	tw := table.NewWriter()
	header := make(table.Row, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, r := range rows {
		cells := r.Strings()
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		tw.AppendRow(row)
	}
	return tw
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, newWriter(rows).RenderCSV()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// RenderTable formats rows for a terminal.
func RenderTable(rows []Row) string {
	tw := newWriter(rows)
	tw.SetStyle(table.StyleRounded)

	configs := make([]table.ColumnConfig, 0, len(Header))
	for i := range Header {
		align := text.AlignLeft
		if numeric[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
