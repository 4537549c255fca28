// Package config loads, normalizes, and validates shothook configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML or YAML files, and honours environment fallbacks such
// as FTRACK_API_KEY and SHOTHOOK_SMTP_PASSWORD. The Config type centralizes
// every knob the daemon and CLI need, so host credentials, storage roots, and
// transport choices are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
