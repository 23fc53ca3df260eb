// Package quality turns upstream diagnostics into per-source reliability scores.
//
// MIDI sources are scored by the trained reliability model from their
// alignment error and recognition sub-scores, tab sources by their
// chord-probability signal, and audio sources by a per-method prior. Missing
// diagnostics never fail; they yield model.UnknownQuality.
package quality
