// Package cli wires the cobra command surface over the core registry and
// extension APIs. It is thin glue: all invariants live in the internal
// packages it calls.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pm-labs/pm/internal/branding"
	"github.com/pm-labs/pm/internal/config"
	"github.com/pm-labs/pm/internal/display"
	"github.com/pm-labs/pm/internal/extension"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// exitCodeError carries a child process exit status up to Execute.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` tracks your projects and switches between them fast.
Unknown subcommands are dispatched to installed extensions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		// Anything that is not a built-in command is an extension
		// invocation: pm <extension> [command] [args...].
		return dispatchExtension(cmd.Context(), args)
	},
}

// dispatchExtension resolves args[0] to an installed extension (exact name
// or unique prefix) and hands the rest through with the environment
// contract. The child's exit status is carried back as an exitCodeError.
func dispatchExtension(ctx context.Context, args []string) error {
	reg, err := extension.ScanDir(config.ExtensionsDir())
	if err != nil {
		return err
	}
	for _, w := range reg.Warnings() {
		display.Warn(os.Stderr, "%s", w)
	}

	name, err := reg.ResolvePrefix(args[0])
	if err != nil {
		return err
	}

	command := "help"
	var rest []string
	if len(args) > 1 {
		command = args[1]
		rest = args[2:]
	}

	d := extension.NewDispatcher(reg)
	code, err := d.Invoke(ctx, name, command, rest, extension.InvokeContext{
		ProjectID:  currentProjectID(),
		ConfigPath: config.FilePath(),
		Version:    buildVersion,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitCodeError{code: code}
	}
	return nil
}

// currentProjectID matches the working directory against tracked project
// paths; the longest match wins. Empty when no project contains the cwd.
func currentProjectID() string {
	cfg, err := config.Open(config.FilePath())
	if err != nil {
		return ""
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	bestID, bestLen := "", 0
	for id, p := range cfg.Projects {
		if len(p.Path) > bestLen && (cwd == p.Path || hasPathPrefix(cwd, p.Path)) {
			bestID, bestLen = id, len(p.Path)
		}
	}
	return bestID
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) > len(prefix) &&
		path[:len(prefix)] == prefix &&
		path[len(prefix)] == os.PathSeparator
}

// Execute runs the root command and maps the outcome to a process exit
// code: 0 on success, the child's own code for extension invocations,
// ExitNotRunnable for spawn failures, 1 for everything else.
func Execute(version, commit, date string) int {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}

	var spawn *extension.SpawnError
	if errors.As(err, &spawn) {
		display.Error(os.Stderr, "%v", spawn)
		return extension.ExitNotRunnable
	}

	if errors.Is(err, config.ErrNotFound) {
		display.Error(os.Stderr, "%v", err)
		fmt.Fprintf(os.Stderr, "run '%s init' first\n", branding.CLIName())
		return 1
	}

	display.Error(os.Stderr, "%v", err)
	return 1
}
