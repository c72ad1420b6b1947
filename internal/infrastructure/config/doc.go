// Package config loads and validates busboard configuration.
//
// Configuration comes from a YAML file with hardcoded defaults underneath
// and BUSBOARD_* environment variable overrides on top. Secrets (the LTA
// account key, TRMNL OAuth credentials, InfluxDB token) should be supplied
// via the environment rather than committed to the YAML file.
package config
