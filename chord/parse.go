package chord

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jsphweid/chordfuse/model"
	"golang.org/x/text/width"
)

var symbolRegexp = regexp.MustCompile(`^([A-G])([#b]*):?([^/]*)(?:/.*)?$`)

var naturals = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// qualities covers Harte shorthands and the common tab spellings. Qualities
// outside the label model collapse onto their nearest triad or seventh.
var qualities = map[string]model.Quality{
	"":     model.Major,
	"maj":  model.Major,
	"M":    model.Major,
	"aug":  model.Major,
	"+":    model.Major,
	"sus2": model.Major,
	"sus4": model.Major,
	"sus":  model.Major,
	"6":    model.Major,
	"maj6": model.Major,
	"add9": model.Major,
	"5":    model.Major,

	"min":     model.Minor,
	"m":       model.Minor,
	"-":       model.Minor,
	"dim":     model.Minor,
	"o":       model.Minor,
	"min6":    model.Minor,
	"m6":      model.Minor,
	"minmaj7": model.Minor,
	"mmaj7":   model.Minor,

	"7":  model.Dominant7,
	"9":  model.Dominant7,
	"11": model.Dominant7,
	"13": model.Dominant7,

	"maj7":  model.Major7,
	"M7":    model.Major7,
	"maj9":  model.Major7,
	"maj11": model.Major7,
	"maj13": model.Major7,

	"min7":  model.Minor7,
	"m7":    model.Minor7,
	"-7":    model.Minor7,
	"hdim7": model.Minor7,
	"m7b5":  model.Minor7,
	"dim7":  model.Minor7,
	"min9":  model.Minor7,
	"m9":    model.Minor7,
	"min11": model.Minor7,
	"min13": model.Minor7,
}

var noChordSymbols = map[string]bool{"N": true, "N.C.": true, "NC": true, "N.C": true, "X": true}

// Parse reads a chord symbol in Harte syntax ("C:maj", "Bb:min7", "N") or a
// guitar tab spelling ("Am", "F#m7", "Cmaj7", "N.C."). Bass notes are dropped.
func Parse(symbol string) (model.ChordLabel, error) {
	s := normalizeSymbol(symbol)
	if s == "" || noChordSymbols[s] {
		return model.NoChordLabel, nil
	}

	m := symbolRegexp.FindStringSubmatch(s)
	if m == nil {
		return model.NoChordLabel, fmt.Errorf("parse chord %q: unrecognized symbol", symbol)
	}

	root := naturals[m[1][0]]
	for _, acc := range m[2] {
		if acc == '#' {
			root++
		} else {
			root--
		}
	}

	q, ok := qualities[strings.TrimSpace(m[3])]
	if !ok {
		return model.NoChordLabel, fmt.Errorf("parse chord %q: unknown quality %q", symbol, m[3])
	}
	return model.NewChordLabel(root, q), nil
}

func MustParse(symbol string) model.ChordLabel {
	c, err := Parse(symbol)
	if err != nil {
		panic(err)
	}
	return c
}

// normalizeSymbol folds full-width characters and music accidentals that
// show up in scraped tab text.
func normalizeSymbol(symbol string) string {
	s := width.Fold.String(strings.TrimSpace(symbol))
	s = strings.NewReplacer("♯", "#", "♭", "b", "Δ7", "maj7", "Δ", "maj7", "ø7", "hdim7", "ø", "hdim7", "°7", "dim7", "°", "dim").Replace(s)
	// strip parenthesised extensions such as "C7(b9)"
	if i := strings.IndexByte(s, '('); i > 0 {
		s = s[:i]
	}
	return s
}
