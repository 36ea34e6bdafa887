// Package config loads, normalizes, and validates taskmill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the daemon and CLI
// need; the parser mode is validated into a closed enumeration at load so an
// invalid mode is a configuration error rather than a silent default.
package config
