// Package config loads, normalizes, and validates sfmpipe configuration data.
//
// It supplies defaults for every stage parameter, expands user paths (including
// tilde shortcuts), reads TOML files, and honours the SFMPIPE_LIBRARY_PATH
// environment fallback for the toolkit library search path.
//
// Always obtain settings through this package so stage builders receive
// sanitized paths, canonical enum values, and clear validation errors.
package config
