package config

import (
	"runtime"

	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/selection"
)

const (
	defaultConfigName    = "chordfuse.toml"
	defaultStorePath     = "~/.local/share/chordfuse/runs.db"
	defaultLogLevel      = "info"
	defaultLogFormat     = "auto"
	defaultServerBind    = "127.0.0.1:8000"
	defaultUnknownWeight = 0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	priority := make([]string, 0, len(model.SourceKinds))
	for _, k := range model.SourceKinds {
		priority = append(priority, string(k))
	}
	return Config{
		Fusion: Fusion{
			Priority:      priority,
			Epsilon:       constants.Epsilon,
			UnknownWeight: defaultUnknownWeight,
		},
		Selection: Selection{
			Policy: selection.PolicyExpectedBest,
		},
		Quality: Quality{
			AudioPrior:          constants.DefaultAudioPrior,
			MIDIFallbackPenalty: constants.MIDIFallbackPenalty,
			AudioPriors:         map[string]float64{},
		},
		Batch: Batch{
			Workers: runtime.NumCPU(),
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Server: Server{
			Bind:           defaultServerBind,
			AllowedOrigins: []string{"*"},
		},
	}
}
