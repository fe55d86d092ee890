package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBinaryNotFound marks failures caused by a missing external tool.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrInvalidInput marks unreadable or corrupt source files.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProcessFailed marks a non-zero exit from an external process.
	ErrProcessFailed = errors.New("process failed")
	// ErrTimeout marks an external invocation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrIO marks filesystem and permission failures.
	ErrIO = errors.New("io error")
	// ErrCancelled marks work interrupted by operator cancellation.
	ErrCancelled = errors.New("cancelled")
)

// FailureKind is the operator-facing classification of a job failure.
type FailureKind string

const (
	KindBinaryNotFound FailureKind = "binary_not_found"
	KindInvalidInput   FailureKind = "invalid_input"
	KindProcessExit    FailureKind = "process_nonzero_exit"
	KindTimeout        FailureKind = "timeout"
	KindIO             FailureKind = "io_error"
	KindCancelled      FailureKind = "cancelled"
	KindUnknown        FailureKind = "unknown"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps any error onto the failure-kind taxonomy. Context deadline and
// cancellation errors are recognized even when a sentinel was not attached.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrBinaryNotFound):
		return KindBinaryNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrProcessFailed):
		return KindProcessExit
	default:
		return KindUnknown
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
