// Package replaygain applies loudness tags to finished Opus files through an
// external gain scanner, per track or across a whole album directory.
package replaygain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"ohopus/internal/encoder"
	"ohopus/internal/services"
)

// Modes accepted by the batch pipeline.
const (
	ModeOff   = "off"
	ModeTrack = "track"
	ModeAlbum = "album"
)

// Adapter wraps an external ReplayGain scanner binary.
type Adapter struct {
	tool    string
	binary  string
	timeout time.Duration
	exec    encoder.Executor
}

// Option configures the adapter.
type Option func(*Adapter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor encoder.Executor) Option {
	return func(a *Adapter) {
		if executor != nil {
			a.exec = executor
		}
	}
}

// WithTimeout bounds each scanner invocation. Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New constructs an adapter for the named tool. Supported tools are
// "loudgain" and "opusgain"; they take different flags for the same result.
func New(tool, binary string, opts ...Option) (*Adapter, error) {
	tool = strings.TrimSpace(tool)
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("replaygain binary required")
	}
	switch tool {
	case "loudgain", "opusgain":
	default:
		return nil, fmt.Errorf("unknown replaygain tool %q", tool)
	}
	a := &Adapter{tool: tool, binary: binary, exec: encoder.NewExecutor()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Track writes per-track gain tags into each file.
func (a *Adapter) Track(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return services.Wrap(services.ErrInvalidInput, "replaygain", "scan", "no files to scan", nil)
	}
	return a.run(ctx, a.args(false, paths))
}

// Album scans all paths together and writes album gain alongside track gain.
func (a *Adapter) Album(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return services.Wrap(services.ErrInvalidInput, "replaygain", "scan", "no files to scan", nil)
	}
	return a.run(ctx, a.args(true, paths))
}

func (a *Adapter) args(album bool, paths []string) []string {
	var args []string
	switch a.tool {
	case "loudgain":
		// -s e writes both track and album tags; -k clips-protects.
		args = []string{"-k", "-s", "e"}
		if album {
			args = append(args, "-a")
		}
	case "opusgain":
		if album {
			args = []string{"-a"}
		}
	}
	return append(args, paths...)
}

func (a *Adapter) run(ctx context.Context, args []string) error {
	const component = "replaygain"
	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tail := newTail()
	err := a.exec.Run(runCtx, a.binary, args, encoder.RunOptions{OnStderr: tail.append})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, "scan",
			fmt.Sprintf("scan exceeded %s", a.timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return services.Wrap(services.ErrCancelled, component, "scan", "scan cancelled", err)
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrBinaryNotFound, component, "scan",
			fmt.Sprintf("binary %q not found", a.binary), err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message := fmt.Sprintf("%s exit status %d", a.tool, exitErr.ExitCode())
		if diag := tail.String(); diag != "" {
			message = fmt.Sprintf("%s\n%s", message, diag)
		}
		return services.Wrap(services.ErrProcessFailed, component, "scan", message, err)
	}
	return services.Wrap(services.ErrIO, component, "scan", "run gain scanner", err)
}

type tailBuf struct {
	lines []string
}

func newTail() *tailBuf {
	return &tailBuf{}
}

func (t *tailBuf) append(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > 12 {
		t.lines = t.lines[len(t.lines)-12:]
	}
}

func (t *tailBuf) String() string {
	return strings.Join(t.lines, "\n")
}
