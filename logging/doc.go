// Package logging builds the slog loggers used by the command-line and HTTP
// surfaces. Library packages do not log; they return errors.
package logging
