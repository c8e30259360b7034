// Package platform maps operating system and CPU architecture to the
// canonical target triple used in release artifact names.
package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrUnsupportedPlatform is returned for (os, arch) pairs with no entry in
// the target table. Unknown combinations fail explicitly; there is no
// fallback guess.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Target identifies a supported platform and its release artifact triple.
type Target struct {
	OS     string // normalized: linux, darwin, windows
	Arch   string // normalized: amd64, arm64
	Triple string // e.g. x86_64-unknown-linux-gnu
}

// ExeSuffix returns ".exe" on Windows targets, "" elsewhere.
func (t Target) ExeSuffix() string {
	if t.OS == "windows" {
		return ".exe"
	}
	return ""
}

// targets is the exhaustive static table. Keys are normalized (os, arch).
var targets = map[[2]string]string{
	{"linux", "amd64"}:   "x86_64-unknown-linux-gnu",
	{"linux", "arm64"}:   "aarch64-unknown-linux-gnu",
	{"darwin", "amd64"}:  "x86_64-apple-darwin",
	{"darwin", "arm64"}:  "aarch64-apple-darwin",
	{"windows", "amd64"}: "x86_64-pc-windows-msvc",
	{"windows", "arm64"}: "aarch64-pc-windows-msvc",
}

// osAliases and archAliases accept the conventional spellings used by
// release tooling alongside Go's runtime names.
var osAliases = map[string]string{
	"linux":   "linux",
	"darwin":  "darwin",
	"macos":   "darwin",
	"windows": "windows",
	"win32":   "windows",
}

var archAliases = map[string]string{
	"amd64":   "amd64",
	"x64":     "amd64",
	"x86_64":  "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
}

// Resolve maps an (os, arch) pair to its Target. Both Go runtime names
// (windows/amd64) and conventional names (win32/x64) are accepted.
func Resolve(osName, arch string) (Target, error) {
	o, ok := osAliases[osName]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, osName, arch)
	}
	a, ok := archAliases[arch]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, osName, arch)
	}
	triple, ok := targets[[2]string{o, a}]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, osName, arch)
	}
	return Target{OS: o, Arch: a, Triple: triple}, nil
}

// Current resolves the platform this binary is running on.
func Current() (Target, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}

// BinaryName returns the raw-binary artifact name for a tool on a target:
// <tool>-<triple>[.exe].
func BinaryName(tool string, t Target) string {
	return fmt.Sprintf("%s-%s%s", tool, t.Triple, t.ExeSuffix())
}

// ArchiveNames returns the archive artifact names tried for a tool on a
// target, in preference order.
func ArchiveNames(tool string, t Target) []string {
	base := fmt.Sprintf("%s-%s", tool, t.Triple)
	if t.OS == "windows" {
		return []string{base + ".zip", base + ".tar.gz"}
	}
	return []string{base + ".tar.gz", base + ".zip"}
}

// Chmod marks a downloaded entry point executable. No-op on Windows,
// where runnability comes from the .exe suffix rather than permission
// bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}
