// Package logging provides structured logging for busboard.
//
// It wraps the standard log/slog package so every log entry carries
// consistent default fields (service, version) and honours the level
// and format configured in config.yaml.
//
// Never log secrets: the LTA account key, TRMNL OAuth credentials, and
// device access tokens must not appear in log output.
package logging
