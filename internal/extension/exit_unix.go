//go:build !windows

package extension

import (
	"os/exec"
	"syscall"
)

// signalExitCode maps a signal-terminated child to 128+signal, the shell
// convention, keeping it distinguishable from codes the child could have
// returned itself through a normal exit.
func signalExitCode(err *exec.ExitError) int {
	if status, ok := err.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return ExitAbnormal
}
