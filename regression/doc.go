// Package regression trains the reliability model that predicts how useful a
// symbolic source will be from its alignment error and recognition signal.
//
// Training is an offline batch step. The train/validation split samples songs
// with an explicit seed, and the seed is stored with the saved model so a run
// can be replayed exactly. Fitted coefficients are constrained so predictions
// never improve as alignment error grows or as the signal drops.
package regression
