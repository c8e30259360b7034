package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pm-labs/pm/internal/branding"
	"github.com/spf13/viper"
)

// FileName is the configuration document's file name inside Dir().
const FileName = "config.yml"

var envOnce sync.Once

// bindEnv wires viper to the PM_* environment namespace so path overrides
// (PM_CONFIG_DIR, PM_EXTENSIONS_DIR) are picked up without explicit flags.
func bindEnv() {
	envOnce.Do(func() {
		viper.SetEnvPrefix(branding.EnvPrefix())
		viper.AutomaticEnv()
	})
}

// Dir returns the configuration directory (~/.config/pm by default,
// PM_CONFIG_DIR when set).
func Dir() string {
	bindEnv()
	if v := viper.GetString("config_dir"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the configuration document.
func FilePath() string {
	return filepath.Join(Dir(), FileName)
}

// ExtensionsDir returns the directory holding installed extensions, one
// immediate subdirectory per extension (PM_EXTENSIONS_DIR when set).
func ExtensionsDir() string {
	bindEnv()
	if v := viper.GetString("extensions_dir"); v != "" {
		return v
	}
	return filepath.Join(Dir(), "extensions")
}

// EnsureDir creates the configuration directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}
