package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pm-labs/pm/internal/config"
	"github.com/pm-labs/pm/internal/display"
	"github.com/pm-labs/pm/internal/extension"
	"github.com/spf13/cobra"
)

var extCmd = &cobra.Command{
	Use:   "ext",
	Short: "Manage extensions",
}

var extInstallCmd = &cobra.Command{
	Use:   "install <owner/repo>",
	Short: "Install an extension from a GitHub release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		if !strings.Contains(source, "/") {
			return fmt.Errorf("source must be an owner/repo slug, got %q", source)
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = source[strings.LastIndex(source, "/")+1:]
		}
		version, _ := cmd.Flags().GetString("version")
		if version == "" {
			return fmt.Errorf("--version is required (release tag without the leading v)")
		}

		inst := extension.NewInstaller(config.ExtensionsDir())
		installed, err := inst.Install(cmd.Context(), extension.InstallSpec{
			Name:    name,
			Source:  source,
			Version: version,
		})
		if err != nil {
			return err
		}
		display.Success(os.Stdout, "installed %s %s", installed.Name, installed.Manifest.Version)
		return nil
	},
}

var extListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := extension.ScanDir(config.ExtensionsDir())
		if err != nil {
			return err
		}
		for _, w := range reg.Warnings() {
			display.Warn(os.Stderr, "%s", w)
		}
		display.ExtensionList(os.Stdout, reg.List())
		return nil
	},
}

var extInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show an extension's manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := extension.ScanDir(config.ExtensionsDir())
		if err != nil {
			return err
		}
		name, err := reg.ResolvePrefix(args[0])
		if err != nil {
			return err
		}
		ext, err := reg.Get(name)
		if err != nil {
			return err
		}
		display.ExtensionInfo(os.Stdout, ext)
		return nil
	},
}

var extUninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove an installed extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := extension.NewInstaller(config.ExtensionsDir())
		if err := inst.Uninstall(args[0]); err != nil {
			return err
		}
		display.Success(os.Stdout, "uninstalled %s", args[0])
		return nil
	},
}

func init() {
	extInstallCmd.Flags().String("name", "", "extension name (defaults to the repo name)")
	extInstallCmd.Flags().String("version", "", "release version to install")

	extCmd.AddCommand(extInstallCmd, extListCmd, extInfoCmd, extUninstallCmd)
	rootCmd.AddCommand(extCmd)
}
