package config

import (
	"fmt"
	"strings"

	"github.com/jsphweid/chordfuse/constants"
	"github.com/jsphweid/chordfuse/model"
)

func (c *Config) normalize() error {
	c.normalizeFusion()
	c.Selection.Policy = strings.ToLower(strings.TrimSpace(c.Selection.Policy))
	if c.Quality.AudioPriors == nil {
		c.Quality.AudioPriors = map[string]float64{}
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 1
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	return nil
}

func (c *Config) normalizeFusion() {
	seen := make(map[string]bool, len(c.Fusion.Priority))
	out := c.Fusion.Priority[:0]
	for _, k := range c.Fusion.Priority {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	c.Fusion.Priority = out
	if c.Fusion.Epsilon <= 0 {
		c.Fusion.Epsilon = constants.Epsilon
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Model.Path, err = expandPath(strings.TrimSpace(c.Model.Path)); err != nil {
		return fmt.Errorf("model.path: %w", err)
	}
	if c.Store.Path, err = expandPath(strings.TrimSpace(c.Store.Path)); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// PriorityKinds returns the configured fusion priority as source kinds.
func (c *Config) PriorityKinds() []model.SourceKind {
	kinds := make([]model.SourceKind, 0, len(c.Fusion.Priority))
	for _, k := range c.Fusion.Priority {
		kind, err := model.ParseSourceKind(k)
		if err != nil {
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds
}
