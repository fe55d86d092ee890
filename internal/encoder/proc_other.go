//go:build !unix

package encoder

import (
	"errors"
	"os/exec"
)

// ErrSuspendUnsupported reports that the platform cannot stop a running
// process in place. Callers degrade to withholding new work instead.
var ErrSuspendUnsupported = errors.New("process suspension not supported on this platform")

type osProcess struct {
	cmd *exec.Cmd
}

func newOSProcess(cmd *exec.Cmd) Process {
	return osProcess{cmd: cmd}
}

func (p osProcess) Suspend() error {
	return ErrSuspendUnsupported
}

func (p osProcess) Resume() error {
	return ErrSuspendUnsupported
}

func (p osProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
