package extension

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Installed is the derived record for one extension found on disk. It is
// rebuilt on every scan and never cached across process lifetimes, since
// extensions can be added or removed by other processes.
type Installed struct {
	Name       string
	Dir        string
	BinaryPath string
	Manifest   *Manifest
}

// Warning reports an extension directory that was skipped during a scan.
// One broken extension never blocks the others.
type Warning struct {
	Extension string
	Reason    string
}

func (w Warning) String() string {
	return fmt.Sprintf("skipping extension %s: %s", w.Extension, w.Reason)
}

// Registry indexes the extensions installed under one directory.
type Registry struct {
	dir      string
	exts     map[string]*Installed
	warnings []Warning
}

// ScanDir scans extensionsDir, treating each immediate subdirectory as one
// extension. Directories with an unreadable manifest, a manifest whose name
// does not match the directory, or a missing entry point are excluded and
// reported as warnings. A missing extensions directory yields an empty
// registry.
func ScanDir(extensionsDir string) (*Registry, error) {
	r := &Registry{dir: extensionsDir, exts: map[string]*Installed{}}

	entries, err := os.ReadDir(extensionsDir)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading extensions directory %s: %w", extensionsDir, err)
	}

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		dir := filepath.Join(extensionsDir, name)

		manifest, err := LoadManifest(filepath.Join(dir, ManifestFileName))
		if err != nil {
			r.warnings = append(r.warnings, Warning{Extension: name, Reason: err.Error()})
			continue
		}
		if manifest.Name != name {
			r.warnings = append(r.warnings, Warning{
				Extension: name,
				Reason:    fmt.Sprintf("manifest name %q does not match directory", manifest.Name),
			})
			continue
		}

		binary := EntryPointPath(dir, name)
		if _, err := os.Stat(binary); err != nil {
			r.warnings = append(r.warnings, Warning{
				Extension: name,
				Reason:    fmt.Sprintf("entry point %s missing", filepath.Base(binary)),
			})
			continue
		}

		r.exts[name] = &Installed{
			Name:       name,
			Dir:        dir,
			BinaryPath: binary,
			Manifest:   manifest,
		}
	}
	return r, nil
}

// EntryPointPath returns the expected entry point for an extension
// directory: <dir>/<name> (plus .exe on Windows).
func EntryPointPath(dir, name string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, name+".exe")
	}
	return filepath.Join(dir, name)
}

// Dir returns the scanned extensions directory.
func (r *Registry) Dir() string { return r.dir }

// Get returns the installed extension with the given name.
func (r *Registry) Get(name string) (*Installed, error) {
	ext, ok := r.exts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}
	return ext, nil
}

// List returns all installed extensions sorted by name.
func (r *Registry) List() []*Installed {
	out := make([]*Installed, 0, len(r.exts))
	for _, ext := range r.exts {
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Warnings returns the scan warnings for broken extension directories.
func (r *Registry) Warnings() []Warning { return r.warnings }

// ResolveCommand locates the entry point for a command of an extension.
// ErrExtensionNotFound is fatal to the invocation; ErrCommandNotFound is
// not — the entry point is still returned so the caller can fall back to
// invoking the extension with the raw arguments and let it decide.
func (r *Registry) ResolveCommand(extName, command string) (string, error) {
	ext, err := r.Get(extName)
	if err != nil {
		return "", err
	}
	if ext.Manifest.FindCommand(command) == nil {
		return ext.BinaryPath, fmt.Errorf("%w: %s %s", ErrCommandNotFound, extName, command)
	}
	return ext.BinaryPath, nil
}

// ResolvePrefix maps user input to an installed extension name: exact match
// first, then a unique name prefix. Ambiguous or unknown input returns an
// error listing candidates.
func (r *Registry) ResolvePrefix(input string) (string, error) {
	if _, ok := r.exts[input]; ok {
		return input, nil
	}

	var matches []string
	for name := range r.exts {
		if strings.HasPrefix(name, input) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrExtensionNotFound, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %s", ErrExtensionNotFound, input, strings.Join(matches, ", "))
	}
}
