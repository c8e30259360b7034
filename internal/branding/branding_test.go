package branding

import "testing"

func TestEmbeddedIdentity(t *testing.T) {
	if CLIName() != "pm" {
		t.Errorf("CLIName = %q, want pm", CLIName())
	}
	if HomeDir() == "" {
		t.Error("HomeDir must not be empty")
	}
	if GitHubRepo() == "" {
		t.Error("GitHubRepo must not be empty")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvPrefix(); got != "PM" {
		t.Errorf("EnvPrefix = %q, want PM", got)
	}
	if got := EnvVar("config_path"); got != "PM_CONFIG_PATH" {
		t.Errorf("EnvVar = %q, want PM_CONFIG_PATH", got)
	}
}
