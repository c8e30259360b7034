package extension

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// ManifestFileName is the manifest file inside each extension directory.
const ManifestFileName = "extension.yml"

// Manifest describes an installed extension's identity and commands. The
// file is owned wholesale by the extension's directory: reinstalls and
// upgrades overwrite it completely, never patch it.
type Manifest struct {
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	Description string    `yaml:"description"`
	Author      string    `yaml:"author,omitempty"`
	Commands    []Command `yaml:"commands"`
}

// Command is one subcommand an extension documents. The list is
// documentation-first: extensions may accept commands they do not declare.
type Command struct {
	Name    string   `yaml:"name"`
	Help    string   `yaml:"help"`
	Aliases []string `yaml:"aliases,omitempty"`
}

var nameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// LoadManifest reads and validates an extension manifest. Unknown fields
// are rejected.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest to path, overwriting any previous content.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// Validate checks manifest invariants: identifier-shaped name, semantic
// version, and no duplicate command names or aliases.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRe.MatchString(m.Name) {
		return fmt.Errorf("name %q is not a valid extension identifier", m.Name)
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", m.Version, err)
	}

	seen := map[string]bool{}
	for _, c := range m.Commands {
		if c.Name == "" {
			return fmt.Errorf("command name must not be empty")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate command name %q", c.Name)
		}
		seen[c.Name] = true
		for _, alias := range c.Aliases {
			if seen[alias] {
				return fmt.Errorf("duplicate command name or alias %q", alias)
			}
			seen[alias] = true
		}
	}
	return nil
}

// FindCommand resolves a command by name or alias. Returns nil when the
// manifest does not declare it; callers fall back to invoking the entry
// point with the raw arguments.
func (m *Manifest) FindCommand(name string) *Command {
	for i := range m.Commands {
		c := &m.Commands[i]
		if c.Name == name {
			return c
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c
			}
		}
	}
	return nil
}
