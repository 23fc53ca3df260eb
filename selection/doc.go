// Package selection decides which candidate label sequences of a song take
// part in fusion.
//
// Policies implement Selector. PassThrough keeps every candidate;
// ExpectedBest keeps all audio estimates plus the best-scoring MIDI-bar,
// MIDI-beat and tab source. Selection never mutates its inputs and is
// deterministic for identical inputs, including identical scores.
package selection
