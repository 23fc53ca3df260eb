// Package batch runs the score, select and fuse pipeline over many songs.
//
// Songs are independent. A failure on one song is recorded on its result and
// never stops the others; only cancellation of the context aborts a run.
package batch
