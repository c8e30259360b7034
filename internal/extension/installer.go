package extension

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pm-labs/pm/internal/platform"
)

const defaultDownloadTimeout = 60 * time.Second

// Installer resolves, fetches, verifies, and installs extension release
// artifacts into the local extensions directory.
type Installer struct {
	extensionsDir string
	baseURL       string
	client        *http.Client
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) InstallerOption {
	return func(i *Installer) { i.client = c }
}

// WithBaseURL overrides the release host (default https://github.com).
func WithBaseURL(u string) InstallerOption {
	return func(i *Installer) { i.baseURL = u }
}

// NewInstaller returns an installer writing into extensionsDir.
func NewInstaller(extensionsDir string, opts ...InstallerOption) *Installer {
	i := &Installer{
		extensionsDir: extensionsDir,
		baseURL:       "https://github.com",
		client:        &http.Client{Timeout: defaultDownloadTimeout},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AssetRef is a resolved artifact location.
type AssetRef struct {
	URL      string
	Filename string
}

// InstallSpec identifies one extension release to install. Source is the
// owner/repo slug hosting the release.
type InstallSpec struct {
	Name    string
	Source  string
	Version string
}

// releaseURL returns the download URL for a file under the release tag.
func (i *Installer) releaseURL(spec InstallSpec, filename string) string {
	return fmt.Sprintf("%s/%s/releases/download/v%s/%s", i.baseURL, spec.Source, spec.Version, filename)
}

// ResolveAsset constructs the candidate artifact references for a release
// on a target, in download preference order: raw binary first, then
// archives. Construction is deterministic; no remote listing is consulted.
func (i *Installer) ResolveAsset(spec InstallSpec, t platform.Target) []AssetRef {
	names := append([]string{platform.BinaryName(spec.Name, t)}, platform.ArchiveNames(spec.Name, t)...)
	refs := make([]AssetRef, len(names))
	for n, name := range names {
		refs[n] = AssetRef{URL: i.releaseURL(spec, name), Filename: name}
	}
	return refs
}

// Install fetches and installs one extension release for the current
// platform. The artifact is downloaded to a temporary location, verified
// against a published checksums.txt when one exists, unpacked into a
// staging directory, and swapped into place with directory renames — a
// failure at any step leaves a previously installed version untouched, and
// a concurrent reader sees either the old or the new install, never a mix.
// Reinstalling the same version yields the same bytes; the fetch is not
// skipped.
func (i *Installer) Install(ctx context.Context, spec InstallSpec) (*Installed, error) {
	target, err := platform.Current()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(i.extensionsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating extensions directory: %w", err)
	}

	workDir, err := os.MkdirTemp(i.extensionsDir, ".install-"+spec.Name+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Try each artifact naming candidate until one exists on the release.
	var artifactPath string
	var lastErr error
	for _, ref := range i.ResolveAsset(spec, target) {
		artifactPath, lastErr = i.download(ctx, ref.URL, workDir)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("fetching extension %s %s: %w", spec.Name, spec.Version, lastErr)
	}

	if err := i.verifyArtifact(ctx, spec, artifactPath); err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(workDir, "staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	if isArchive(artifactPath) {
		if err := extractArchive(artifactPath, stagingDir); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", filepath.Base(artifactPath), err)
		}
	} else {
		// Raw binary artifact: it becomes the entry point as-is.
		if err := os.Rename(artifactPath, EntryPointPath(stagingDir, spec.Name)); err != nil {
			return nil, fmt.Errorf("staging binary: %w", err)
		}
	}

	entry, err := locateEntryPoint(stagingDir, spec.Name)
	if err != nil {
		return nil, err
	}
	// The dispatcher resolves <dir>/<name>; normalize nested layouts.
	canonical := EntryPointPath(stagingDir, spec.Name)
	if entry != canonical {
		if err := os.Rename(entry, canonical); err != nil {
			return nil, fmt.Errorf("normalizing entry point: %w", err)
		}
	}
	if err := platform.Chmod(canonical, 0755); err != nil {
		return nil, fmt.Errorf("setting executable permissions: %w", err)
	}

	if err := ensureManifest(stagingDir, spec); err != nil {
		return nil, err
	}

	if err := i.swapIntoPlace(stagingDir, spec.Name); err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(filepath.Join(i.extensionsDir, spec.Name, ManifestFileName))
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(i.extensionsDir, spec.Name)
	return &Installed{
		Name:       spec.Name,
		Dir:        dir,
		BinaryPath: EntryPointPath(dir, spec.Name),
		Manifest:   manifest,
	}, nil
}

// Uninstall removes an installed extension directory wholesale.
func (i *Installer) Uninstall(name string) error {
	dir := filepath.Join(i.extensionsDir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing extension %s: %w", name, err)
	}
	return nil
}

// verifyArtifact checks the downloaded artifact against the release's
// checksums.txt when published. Absence of the checksums file is
// tolerated; a present-but-mismatching checksum aborts the install.
func (i *Installer) verifyArtifact(ctx context.Context, spec InstallSpec, artifactPath string) error {
	sums, err := i.fetchChecksums(ctx, i.releaseURL(spec, "checksums.txt"))
	if err != nil {
		return fmt.Errorf("verifying extension %s: %w", spec.Name, err)
	}
	if sums == nil {
		return nil
	}
	expected, ok := sums[filepath.Base(artifactPath)]
	if !ok {
		return nil
	}
	return verifySHA256(artifactPath, expected)
}

// locateEntryPoint finds the extension binary inside the extracted staging
// tree. Archives may nest the binary under a top-level directory or bin/.
func locateEntryPoint(stagingDir, name string) (string, error) {
	candidates := []string{name, name + ".exe"}
	var found string
	err := filepath.WalkDir(stagingDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || found != "" {
			return walkErr
		}
		base := filepath.Base(path)
		for _, c := range candidates {
			if base == c {
				found = path
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for entry point: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("entry point %s not found in artifact", name)
	}
	return found, nil
}

// ensureManifest guarantees the staging tree carries a valid extension.yml.
// Archives normally ship one; raw binary artifacts get a minimal manifest
// synthesized from the install spec.
func ensureManifest(stagingDir string, spec InstallSpec) error {
	path := filepath.Join(stagingDir, ManifestFileName)
	if _, err := os.Stat(path); err == nil {
		m, err := LoadManifest(path)
		if err != nil {
			return err
		}
		if m.Name != spec.Name {
			return fmt.Errorf("artifact manifest names %q, expected %q", m.Name, spec.Name)
		}
		return nil
	}

	// Archives may nest the manifest next to the binary.
	var nested string
	filepath.WalkDir(stagingDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr == nil && !d.IsDir() && filepath.Base(p) == ManifestFileName && nested == "" {
			nested = p
			return filepath.SkipAll
		}
		return walkErr
	})
	if nested != "" {
		return copyFile(nested, path)
	}

	m := &Manifest{
		Name:        spec.Name,
		Version:     spec.Version,
		Description: fmt.Sprintf("%s extension", spec.Name),
		Commands:    []Command{},
	}
	return m.Save(path)
}

// swapIntoPlace promotes the staging directory to the live extension
// directory. Any prior install is renamed aside first and restored if the
// promotion fails, so an existing working version never regresses.
func (i *Installer) swapIntoPlace(stagingDir, name string) error {
	finalDir := filepath.Join(i.extensionsDir, name)
	oldDir := ""

	if _, err := os.Stat(finalDir); err == nil {
		oldDir = filepath.Join(i.extensionsDir, fmt.Sprintf(".old-%s-%d", name, time.Now().UnixNano()))
		if err := os.Rename(finalDir, oldDir); err != nil {
			return fmt.Errorf("setting aside previous install of %s: %w", name, err)
		}
	}

	if err := os.Rename(stagingDir, finalDir); err != nil {
		if oldDir != "" {
			os.Rename(oldDir, finalDir)
		}
		return fmt.Errorf("activating install of %s: %w", name, err)
	}

	if oldDir != "" {
		os.RemoveAll(oldDir)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
