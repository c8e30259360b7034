package extension

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/pm-labs/pm/internal/branding"
)

// InvokeContext carries the environment contract handed to an extension
// process. All values are plain strings; ProjectID is empty when no
// project is active.
type InvokeContext struct {
	ProjectID  string
	ConfigPath string
	Version    string
}

// Dispatcher spawns extension entry points as first-class subcommands.
type Dispatcher struct {
	registry *Registry

	// Stdin, Stdout, and Stderr can be set for testing; they default to
	// the process streams so extensions behave like native subcommands.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDispatcher returns a dispatcher resolving entry points through reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Invoke runs a command of an extension and blocks until the child
// terminates, returning its exit status.
//
// A command the manifest does not declare is not an error: the entry point
// is invoked with the raw arguments and the extension decides. Interrupt
// and termination signals received while the child runs are forwarded to
// it, and the dispatcher keeps waiting for the child's own exit so no
// extension process is orphaned.
//
// A child exiting normally propagates its exit code unchanged. A child
// killed by a signal maps to 128+signal (ExitAbnormal when the signal is
// unknown). Failure to start the child at all returns a *SpawnError.
func (d *Dispatcher) Invoke(ctx context.Context, extName, command string, args []string, ic InvokeContext) (int, error) {
	entry, err := d.registry.ResolveCommand(extName, command)
	if err != nil && !errors.Is(err, ErrCommandNotFound) {
		return ExitNotRunnable, err
	}

	ext, err := d.registry.Get(extName)
	if err != nil {
		return ExitNotRunnable, err
	}

	argv := append([]string{command}, args...)
	cmd := exec.CommandContext(ctx, entry, argv...)
	cmd.Env = buildEnv(ext, command, ic)

	cmd.Stdin = d.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = d.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = d.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	// Register for interrupt/termination before the child exists, so a
	// signal arriving right after Start is already captured for
	// forwarding instead of hitting the default handler.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if err := cmd.Start(); err != nil {
		signal.Stop(sigCh)
		return ExitNotRunnable, &SpawnError{Extension: extName, Path: entry, Err: err}
	}

	// Forward signals to the child and keep waiting; the child gets the
	// chance to clean up and report its own exit.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	signal.Stop(sigCh)

	if waitErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return signalExitCode(exitErr), nil
	}
	return ExitNotRunnable, &SpawnError{Extension: extName, Path: entry, Err: waitErr}
}

// buildEnv assembles the fixed environment contract on top of the parent
// environment.
func buildEnv(ext *Installed, command string, ic InvokeContext) []string {
	env := os.Environ()
	env = append(env,
		branding.EnvVar("CONFIG_PATH")+"="+ic.ConfigPath,
		branding.EnvVar("CURRENT_PROJECT")+"="+ic.ProjectID,
		branding.EnvVar("VERSION")+"="+ic.Version,
		branding.EnvVar("EXTENSION_DIR")+"="+ext.Dir,
		branding.EnvVar("EXTENSION_NAME")+"="+ext.Name,
		branding.EnvVar("COMMAND_NAME")+"="+command,
	)
	return env
}
