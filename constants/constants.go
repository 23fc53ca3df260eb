package constants

import "os"

func GetConfigPath() string {
	return os.Getenv("CHORDFUSE_CONFIG")
}

// GetOutputDir is where fused .lab files and exports are written.
func GetOutputDir() string {
	path := os.Getenv("CHORDFUSE_OUTPUT_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

// Epsilon is the tolerance for boundary and score comparisons.
const Epsilon = 1e-9

// DefaultAudioPrior is the quality assigned to an audio estimate whose
// method has no configured benchmark accuracy.
const DefaultAudioPrior = 0.6

// MIDIFallbackPenalty scales the alignment error when no trained
// reliability model is loaded.
const MIDIFallbackPenalty = 0.5

const FusedID = "fused"
