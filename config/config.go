package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jsphweid/chordfuse/constants"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the runtime configuration for the fusion pipeline and its
// command-line and HTTP surfaces.
type Config struct {
	Fusion    Fusion    `toml:"fusion"`
	Selection Selection `toml:"selection"`
	Quality   Quality   `toml:"quality"`
	Model     Model     `toml:"model"`
	Batch     Batch     `toml:"batch"`
	Store     Store     `toml:"store"`
	Logging   Logging   `toml:"logging"`
	Server    Server    `toml:"server"`
}

type Fusion struct {
	// Priority lists source kinds from most to least trusted. Kinds missing
	// from the list rank after every listed kind.
	Priority      []string `toml:"priority"`
	Epsilon       float64  `toml:"epsilon"`
	UnknownWeight float64  `toml:"unknown_weight"`
}

type Selection struct {
	Policy string `toml:"policy"`
}

type Quality struct {
	AudioPrior          float64            `toml:"audio_prior"`
	MIDIFallbackPenalty float64            `toml:"midi_fallback_penalty"`
	AudioPriors         map[string]float64 `toml:"audio_priors"`
}

type Model struct {
	// Path to a trained quality model. Empty disables the regression
	// predictor and MIDI sources fall back to the alignment heuristic.
	Path string `toml:"path"`
}

type Batch struct {
	Workers int `toml:"workers"`
}

type Store struct {
	Path string `toml:"path"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Load locates, parses, and validates a configuration file. An empty path
// falls back to CHORDFUSE_CONFIG and then to chordfuse.toml in the working
// directory. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, "", false, fmt.Errorf("parse config %s:%d:%d: %w", resolved, row, col, err)
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = constants.GetConfigPath()
	}
	if strings.TrimSpace(path) == "" {
		path = defaultConfigName
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	if strings.HasPrefix(value, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if value == "~" {
			value = home
		} else if len(value) > 1 && (value[1] == '/' || value[1] == '\\') {
			value = filepath.Join(home, value[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(value))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
