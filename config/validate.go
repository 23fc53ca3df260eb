package config

import (
	"errors"
	"fmt"

	"github.com/jsphweid/chordfuse/model"
	"github.com/jsphweid/chordfuse/selection"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFusion(); err != nil {
		return err
	}
	if _, err := selection.New(c.Selection.Policy); err != nil {
		return fmt.Errorf("selection.policy: %w", err)
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFusion() error {
	for _, k := range c.Fusion.Priority {
		if _, err := model.ParseSourceKind(k); err != nil {
			return fmt.Errorf("fusion.priority: %w", err)
		}
	}
	if c.Fusion.UnknownWeight < 0 || c.Fusion.UnknownWeight > 1 {
		return errors.New("fusion.unknown_weight must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.AudioPrior < 0 || c.Quality.AudioPrior > 1 {
		return errors.New("quality.audio_prior must be between 0 and 1")
	}
	if c.Quality.MIDIFallbackPenalty < 0 || c.Quality.MIDIFallbackPenalty > 1 {
		return errors.New("quality.midi_fallback_penalty must be between 0 and 1")
	}
	for method, prior := range c.Quality.AudioPriors {
		if prior < 0 || prior > 1 {
			return fmt.Errorf("quality.audio_priors.%s must be between 0 and 1", method)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json, auto", c.Logging.Format)
	}
	return nil
}
