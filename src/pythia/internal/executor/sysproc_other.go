//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

func setSysProcAttr(cmd *exec.Cmd) {}

// terminateProcess asks the process to exit with SIGTERM.
func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGTERM)
}
