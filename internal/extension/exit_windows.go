//go:build windows

package extension

import "os/exec"

// signalExitCode reports ExitAbnormal; Windows has no signal termination
// detail to map.
func signalExitCode(_ *exec.ExitError) int {
	return ExitAbnormal
}
