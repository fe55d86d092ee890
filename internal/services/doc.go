// Package services defines the shared error taxonomy for external tool
// integrations.
//
// Adapters wrap failures with sentinel markers (ErrBinaryNotFound,
// ErrInvalidInput, ErrProcessFailed, ErrTimeout, ErrIO, ErrCancelled) so the
// scheduler and CLI can classify them without string matching. Use Wrap when
// surfacing a failure from an adapter and Classify when presenting one.
package services
