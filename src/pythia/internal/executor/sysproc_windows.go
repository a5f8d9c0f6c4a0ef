//go:build windows

package executor

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr keeps the console window of spawned interpreters hidden.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

// terminateProcess kills outright. Windows has no SIGTERM delivery.
func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
