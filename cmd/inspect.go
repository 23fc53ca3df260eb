package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordfuse/chord"
	"github.com/jsphweid/chordfuse/labfile"
	"github.com/jsphweid/chordfuse/midi"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/regression"
	"github.com/jsphweid/chordfuse/sequence"
)

var (
	inspectKind     string
	inspectDuration float64
	inspectNotes    bool
)

func init() {
	inspectCmd.Flags().StringVar(&inspectKind, "kind", string(model.MIDIBeatAligned), "Source kind to attribute to a .lab or .mid file")
	inspectCmd.Flags().Float64Var(&inspectDuration, "duration", 0, "Song duration for .mid files (default: last chord change + 1s)")
	inspectCmd.Flags().BoolVar(&inspectNotes, "notes", false, "List the sounding MIDI notes at every chord change of a .mid file")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:         "inspect <file>",
	Short:       "Inspects a .lab, .mid or model file",
	Long:        `Prints the label sequence of a .lab file, the chords recognized in a MIDI file, or the coefficients of a trained model.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"skipConfigLoad": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd.OutOrStdout(), args[0])
	},
}

func inspect(out io.Writer, path string) error {
	kind, err := model.ParseSourceKind(inspectKind)
	if err != nil {
		return err
	}
	id := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".lab", ".txt":
		seq, err := labfile.ReadFile(path, kind, id)
		if err != nil {
			return err
		}
		return printSequence(out, seq)
	case ".mid", ".midi":
		if inspectNotes {
			return printChanges(out, path)
		}
		duration := inspectDuration
		if duration <= 0 {
			if duration, err = midiSpan(path); err != nil {
				return err
			}
		}
		seq, err := midi.ChordSequence(path, kind, id, duration)
		if err != nil {
			return err
		}
		return printSequence(out, seq)
	}

	m, err := regression.Load(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, m.String())
	return err
}

func midiSpan(path string) (float64, error) {
	parsed, err := midi.ReadMidiFile(path)
	if err != nil {
		return 0, err
	}
	changes, err := chord.GetChanges(parsed)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, fmt.Errorf("%s: no notes", path)
	}
	return changes[len(changes)-1].Offset + 1, nil
}

func printChanges(out io.Writer, path string) error {
	parsed, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	changes, err := chord.GetChanges(parsed)
	if err != nil {
		return err
	}
	for _, c := range changes {
		fmt.Fprintf(out, "%10.3f  %-8s %s\n", c.Offset, c.Label, chord.CreateChordKey(c.Notes))
	}
	return nil
}

func printSequence(out io.Writer, seq model.LabelSequence) error {
	if err := sequence.Validate(seq); err != nil {
		fmt.Fprintf(out, "warning: %v\n", err)
	}
	fmt.Fprintf(out, "%s  %d intervals  %.3fs\n", seq.Ref(), len(seq.Intervals), sequence.Duration(seq))
	return labfile.Write(out, seq)
}
