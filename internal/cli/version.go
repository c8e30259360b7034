package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pm-labs/pm/internal/branding"
	"github.com/pm-labs/pm/internal/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			})
		}
		fmt.Printf("%s %s (%s, %s)\n", branding.CLIName(), buildVersion, buildCommit, buildDate)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration document",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.FilePath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(config.FilePath())
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "machine-readable output")
	configCmd.AddCommand(configPathCmd, configShowCmd)
	rootCmd.AddCommand(versionCmd, configCmd)
}
