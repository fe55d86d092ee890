// Package config loads and validates the TOML configuration consumed by the
// batch converter.
//
// A batch run captures one immutable Config snapshot at start; changing the
// file mid-run never affects in-flight jobs. Path fields are home-expanded
// and absolutized during load, and the embedded sample_config.toml documents
// every setting with its default.
package config
