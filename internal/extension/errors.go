package extension

import (
	"errors"
	"fmt"
)

// Lifecycle errors.
var (
	ErrExtensionNotFound = errors.New("extension not found")
	ErrCommandNotFound   = errors.New("command not declared by extension")
	ErrAssetNotFound     = errors.New("no release asset found for platform")
	ErrChecksumMismatch  = errors.New("artifact checksum mismatch")
)

// SpawnError reports that an extension's entry point could not be started
// at all (missing file, not executable). It is distinct from any exit code
// the extension itself could produce, so callers can tell "ran and failed"
// apart from "could not be started".
type SpawnError struct {
	Extension string
	Path      string
	Err       error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting extension %s (%s): %v", e.Extension, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Reserved process exit codes, following shell conventions so they stay
// recognizable. A child that exits normally always reports its own code;
// these are used only when no child code exists.
const (
	// ExitAbnormal is reported when a child was terminated without an
	// exit code and the terminating signal is unavailable.
	ExitAbnormal = 126
	// ExitNotRunnable is reported when the entry point could not be
	// spawned at all.
	ExitNotRunnable = 127
)
