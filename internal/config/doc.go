// Package config loads, normalizes, and validates pantrypal configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// USDA_API_KEY and IMAGE_BUCKET_NAME. The Config type centralizes every knob
// the daemon and CLI need, so storage paths, queue transport selection, and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
