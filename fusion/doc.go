// Package fusion merges the selected label sequences of a song into one
// consensus sequence.
//
// The timeline is cut at every boundary of every input. On each piece the
// label with the largest summed quality wins; sums within epsilon are ties,
// settled by source-kind priority and then by source ID. Equal neighbours
// are merged so the output has no artificial fragmentation.
//
// The weighting is a reconstruction of the intended policy and should be
// validated against held-out reference annotations.
package fusion
