// Package config loads, normalizes, and validates transporter settings.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, merges an optional dotenv file, and honours
// environment overrides such as DASHCAM_TRANSPORTER_SETTINGS and
// DASHCAM_TRANSPORTER_LOG_LEVEL. The Config type centralizes every knob the
// daemon and CLI need: both network identities, the download root and its
// locked/ staging directory, and each home upload target.
//
// Incomplete settings are not fatal. Callers use MissingRequired to decide
// whether the transfer loop may start.
package config
