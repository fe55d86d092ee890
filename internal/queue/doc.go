// Package queue persists conversion batches and their jobs in SQLite so
// progress survives restarts and the CLI can inspect past runs.
package queue
