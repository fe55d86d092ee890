package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ohopus/internal/metadata"
	"ohopus/internal/services"
)

// Settings carries the encoder options shared by every backend. Bitrate is
// per-job and travels in the Request instead.
type Settings struct {
	VBR         bool
	Application string
	FrameSizeMS float64
	Complexity  int
	BufferKiB   int
	JobTimeout  time.Duration
}

// Request describes one source-to-destination encode.
type Request struct {
	SourcePath      string
	DestPath        string
	Bitrate         int
	Tags            metadata.Destination
	DurationSeconds float64
	OnProgress      func(percent float64)
	OnStart         func(Process)
}

// Engine encodes one MP3 source into an Opus destination, embedding the
// mapped tag set. Implementations remove partial output on every failure
// path so a failed job never leaves a file behind.
type Engine interface {
	Name() string
	Encode(ctx context.Context, req Request) error
}

// Option configures an engine.
type Option func(*engineBase)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *engineBase) {
		if exec != nil {
			b.exec = exec
		}
	}
}

type engineBase struct {
	binary   string
	settings Settings
	exec     Executor
}

func newEngineBase(binary string, settings Settings, opts []Option) (engineBase, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return engineBase{}, errors.New("encoder binary required")
	}
	base := engineBase{
		binary:   binary,
		settings: settings,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(&base)
	}
	return base, nil
}

// run executes the encoder binary and translates process failures into the
// shared failure taxonomy. tail accumulates stderr for the error message.
func (b engineBase) run(ctx context.Context, component string, args []string, opts RunOptions, tail *stderrTail) error {
	runCtx := ctx
	if b.settings.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.settings.JobTimeout)
		defer cancel()
	}

	err := b.exec.Run(runCtx, b.binary, args, opts)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, "encode",
			fmt.Sprintf("encode exceeded %s", b.settings.JobTimeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return services.Wrap(services.ErrCancelled, component, "encode", "encode cancelled", err)
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrBinaryNotFound, component, "encode",
			fmt.Sprintf("binary %q not found", b.binary), err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message := fmt.Sprintf("exit status %d", exitErr.ExitCode())
		if diag := tail.String(); diag != "" {
			message = fmt.Sprintf("%s\n%s", message, diag)
		}
		return services.Wrap(services.ErrProcessFailed, component, "encode", message, err)
	}
	return services.Wrap(services.ErrIO, component, "encode", "run encoder", err)
}

// prepareDest validates the request and creates the destination directory.
func prepareDest(component string, req Request) error {
	if strings.TrimSpace(req.SourcePath) == "" {
		return services.Wrap(services.ErrInvalidInput, component, "encode", "source path required", nil)
	}
	if strings.TrimSpace(req.DestPath) == "" {
		return services.Wrap(services.ErrInvalidInput, component, "encode", "destination path required", nil)
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		return services.Wrap(services.ErrInvalidInput, component, "encode", "stat source", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.DestPath), 0o755); err != nil {
		return services.Wrap(services.ErrIO, component, "encode", "create destination directory", err)
	}
	return nil
}

// removePartial deletes leftover output files after a failed encode.
func removePartial(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			// Best effort; the path is reported in the job error already.
			continue
		}
	}
}
