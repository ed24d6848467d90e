package fetch

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup puts the child in its own process group and kills the
// whole group on context cancellation, so a timed-out fetch does not leave
// orphaned helper processes behind.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second
}
