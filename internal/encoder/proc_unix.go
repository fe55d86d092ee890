//go:build unix

package encoder

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// osProcess controls a live child process via signals. Suspend and Resume
// use SIGSTOP/SIGCONT so a paused batch stops consuming CPU immediately.
type osProcess struct {
	cmd *exec.Cmd
}

func newOSProcess(cmd *exec.Cmd) Process {
	return osProcess{cmd: cmd}
}

func (p osProcess) signal(sig unix.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	err := unix.Kill(p.cmd.Process.Pid, sig)
	if err == unix.ESRCH {
		// Process already exited.
		return nil
	}
	return err
}

func (p osProcess) Suspend() error {
	return p.signal(unix.SIGSTOP)
}

func (p osProcess) Resume() error {
	return p.signal(unix.SIGCONT)
}

func (p osProcess) Terminate() error {
	return p.signal(unix.SIGTERM)
}
