package config

import (
	"path/filepath"
	"testing"
)

func TestDir_EnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("PM_CONFIG_DIR", override)

	if got := Dir(); got != override {
		t.Errorf("Dir = %q, want %q", got, override)
	}
	if got := FilePath(); got != filepath.Join(override, FileName) {
		t.Errorf("FilePath = %q", got)
	}
	if got := ExtensionsDir(); got != filepath.Join(override, "extensions") {
		t.Errorf("ExtensionsDir = %q", got)
	}
}

func TestExtensionsDir_EnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("PM_EXTENSIONS_DIR", override)

	if got := ExtensionsDir(); got != override {
		t.Errorf("ExtensionsDir = %q, want %q", got, override)
	}
}
