// Package config loads chordfuse settings from TOML.
//
// Loading applies defaults, then the file, then normalization (path
// expansion, lower-casing, deduplication) and finally validation.
package config
