// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package and rebuild. Go's //go:embed
// bakes the values into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "pm",
			DisplayName: "PM",
			Description: "Fast project switcher with pluggable extensions",
			HomeDir:     ".config/pm",
			EnvPrefix:   "PM",
			GoModule:    "github.com/pm-labs/pm",
			GitHubRepo:  "pm-labs/pm",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "pm").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "PM").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the per-user state directory relative to $HOME
// (e.g., ".config/pm").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "PM").
func EnvPrefix() string { load(); return strings.ToUpper(defaults.EnvPrefix) }

// EnvVar builds a fully prefixed environment variable name,
// e.g. EnvVar("CONFIG_DIR") -> "PM_CONFIG_DIR".
func EnvVar(suffix string) string { return EnvPrefix() + "_" + strings.ToUpper(suffix) }

// GitHubRepo returns the owner/name slug of the tool's own repository.
func GitHubRepo() string { load(); return defaults.GitHubRepo }
