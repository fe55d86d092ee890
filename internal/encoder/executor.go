package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Process is a handle to a running encoder process. Suspend and Resume back
// the batch pause controls; Terminate forces the process down on cancel.
type Process interface {
	Suspend() error
	Resume() error
	Terminate() error
}

// RunOptions carries the per-run stream callbacks and buffer sizing.
type RunOptions struct {
	OnStdout  func(string)
	OnStderr  func(string)
	OnStart   func(Process)
	BufferKiB int
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, opts RunOptions) error
}

// DefaultBufferKiB sizes scanner buffers when RunOptions leaves it unset.
const DefaultBufferKiB = 256

type commandExecutor struct{}

// NewExecutor returns the real process-backed executor.
func NewExecutor() Executor {
	return commandExecutor{}
}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, opts RunOptions) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	if opts.OnStart != nil {
		opts.OnStart(newOSProcess(cmd))
	}

	bufKiB := opts.BufferKiB
	if bufKiB <= 0 {
		bufKiB = DefaultBufferKiB
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), bufKiB*1024)
		for scanner.Scan() {
			if forward != nil {
				forward(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, opts.OnStdout)
	go scan(stderr, opts.OnStderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	return cmd.Wait()
}

// stderrTail keeps the last few diagnostic lines a process wrote, verbatim,
// for inclusion in failure messages.
type stderrTail struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func newStderrTail(limit int) *stderrTail {
	if limit <= 0 {
		limit = 12
	}
	return &stderrTail{limit: limit}
}

func (t *stderrTail) Append(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *stderrTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
