// Package logging builds the slog loggers used across the converter.
//
// Two output formats are supported: a compact single-line console format
// for interactive use and JSON for log files. Attribute helpers and the
// shared field-name constants keep records consistent between components
// so the CLI and the event stream can filter on them.
package logging
