//go:build unix

package backend

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// killProcessGroup starts cmd in its own process group and kills the whole
// group on cancellation, so audio players spawned by the command die too.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = time.Second
}
