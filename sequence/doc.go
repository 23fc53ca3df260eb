// Package sequence validates and derives chord label sequences.
//
// Every function returns new values; input sequences are never modified.
// Boundary comparisons use a tolerance (constants.Epsilon by default) so that
// sequences aligned by different upstream tools can share a timeline.
package sequence
