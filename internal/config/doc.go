// Package config loads, normalizes, and validates papermill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives per-stage directories from the
// workspace root when they are not set explicitly. Always obtain settings
// through this package so downstream code receives sanitized absolute paths
// and clear validation errors.
package config
