package extension

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/pm-labs/pm/internal/platform"
)

type tarEntry struct {
	name string
	data []byte
	mode int64
}

func makeTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.data))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func manifestYAML(name, version string) []byte {
	return []byte(fmt.Sprintf("name: %s\nversion: %s\ndescription: test extension\ncommands:\n  - name: status\n    help: Show status\n", name, version))
}

// releaseServer serves a fake release: assets keyed by filename under
// /<source>/releases/download/v<version>/. Everything else is a 404.
func releaseServer(t *testing.T, source, version string, assets map[string][]byte) *httptest.Server {
	t.Helper()
	prefix := fmt.Sprintf("/%s/releases/download/v%s/", source, version)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok {
			http.NotFound(w, r)
			return
		}
		body, ok := assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func currentTarget(t *testing.T) platform.Target {
	t.Helper()
	target, err := platform.Current()
	if err != nil {
		t.Skipf("unsupported test platform: %v", err)
	}
	return target
}

func TestInstall_FromArchive(t *testing.T) {
	target := currentTarget(t)
	archive := makeTarGz(t, []tarEntry{
		{name: "pm-git" + target.ExeSuffix(), data: []byte("#!/bin/sh\nexit 0\n"), mode: 0o755},
		{name: ManifestFileName, data: manifestYAML("pm-git", "1.0.0"), mode: 0o644},
	})
	archiveName := platform.ArchiveNames("pm-git", target)[0]
	srv := releaseServer(t, "alice/pm-git", "1.0.0", map[string][]byte{archiveName: archive})

	extDir := t.TempDir()
	inst := NewInstaller(extDir, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := inst.Install(context.Background(), InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if got.Name != "pm-git" || got.Manifest.Version != "1.0.0" {
		t.Errorf("installed = %+v", got)
	}
	if _, err := os.Stat(got.BinaryPath); err != nil {
		t.Fatalf("entry point missing: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(got.BinaryPath)
		if info.Mode()&0o100 == 0 {
			t.Error("entry point should be executable")
		}
	}

	// The installed tree must scan cleanly.
	reg, err := ScanDir(extDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Get("pm-git"); err != nil {
		t.Errorf("installed extension not visible to scan: %v", err)
	}
	if len(reg.Warnings()) != 0 {
		t.Errorf("unexpected scan warnings: %v", reg.Warnings())
	}
}

func TestInstall_RawBinarySynthesizesManifest(t *testing.T) {
	target := currentTarget(t)
	binaryName := platform.BinaryName("pm-tool", target)
	srv := releaseServer(t, "alice/pm-tool", "2.1.0", map[string][]byte{
		binaryName: []byte("#!/bin/sh\nexit 0\n"),
	})

	inst := NewInstaller(t.TempDir(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := inst.Install(context.Background(), InstallSpec{Name: "pm-tool", Source: "alice/pm-tool", Version: "2.1.0"})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if got.Manifest.Version != "2.1.0" {
		t.Errorf("synthesized manifest version = %q, want 2.1.0", got.Manifest.Version)
	}
	if len(got.Manifest.Commands) != 0 {
		t.Errorf("synthesized manifest should declare no commands, got %v", got.Manifest.Commands)
	}
}

func TestInstall_ChecksumVerification(t *testing.T) {
	target := currentTarget(t)
	archive := makeTarGz(t, []tarEntry{
		{name: "pm-git" + target.ExeSuffix(), data: []byte("#!/bin/sh\nexit 0\n"), mode: 0o755},
		{name: ManifestFileName, data: manifestYAML("pm-git", "1.0.0"), mode: 0o644},
	})
	archiveName := platform.ArchiveNames("pm-git", target)[0]
	sum := sha256.Sum256(archive)

	spec := InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"}

	t.Run("matching checksum passes", func(t *testing.T) {
		srv := releaseServer(t, spec.Source, spec.Version, map[string][]byte{
			archiveName:     archive,
			"checksums.txt": []byte(hex.EncodeToString(sum[:]) + "  " + archiveName + "\n"),
		})
		inst := NewInstaller(t.TempDir(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
		if _, err := inst.Install(context.Background(), spec); err != nil {
			t.Fatalf("Install failed: %v", err)
		}
	})

	t.Run("mismatching checksum aborts", func(t *testing.T) {
		srv := releaseServer(t, spec.Source, spec.Version, map[string][]byte{
			archiveName:     archive,
			"checksums.txt": []byte("deadbeef  " + archiveName + "\n"),
		})
		extDir := t.TempDir()
		inst := NewInstaller(extDir, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

		_, err := inst.Install(context.Background(), spec)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(extDir, "pm-git")); !os.IsNotExist(err) {
			t.Error("aborted install must not leave a live extension directory")
		}
	})
}

func TestInstall_NoMatchingAsset(t *testing.T) {
	currentTarget(t)
	srv := releaseServer(t, "alice/pm-git", "1.0.0", nil)
	inst := NewInstaller(t.TempDir(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := inst.Install(context.Background(), InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestInstall_FailurePreservesPriorInstall(t *testing.T) {
	target := currentTarget(t)
	good := makeTarGz(t, []tarEntry{
		{name: "pm-git" + target.ExeSuffix(), data: []byte("#!/bin/sh\nexit 0\n"), mode: 0o755},
		{name: ManifestFileName, data: manifestYAML("pm-git", "1.0.0"), mode: 0o644},
	})
	// The v2 archive ships no entry point, so its install must fail after
	// download.
	broken := makeTarGz(t, []tarEntry{
		{name: "README.md", data: []byte("oops"), mode: 0o644},
	})
	archiveName := platform.ArchiveNames("pm-git", target)[0]

	extDir := t.TempDir()

	srv1 := releaseServer(t, "alice/pm-git", "1.0.0", map[string][]byte{archiveName: good})
	inst1 := NewInstaller(extDir, WithBaseURL(srv1.URL), WithHTTPClient(srv1.Client()))
	if _, err := inst1.Install(context.Background(), InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"}); err != nil {
		t.Fatalf("initial install failed: %v", err)
	}

	srv2 := releaseServer(t, "alice/pm-git", "2.0.0", map[string][]byte{archiveName: broken})
	inst2 := NewInstaller(extDir, WithBaseURL(srv2.URL), WithHTTPClient(srv2.Client()))
	if _, err := inst2.Install(context.Background(), InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "2.0.0"}); err == nil {
		t.Fatal("install of an entry-point-less archive should fail")
	}

	// The 1.0.0 install must still be intact and scannable.
	reg, err := ScanDir(extDir)
	if err != nil {
		t.Fatal(err)
	}
	ext, err := reg.Get("pm-git")
	if err != nil {
		t.Fatalf("prior install lost: %v", err)
	}
	if ext.Manifest.Version != "1.0.0" {
		t.Errorf("prior install version = %q, want 1.0.0", ext.Manifest.Version)
	}
}

func TestInstall_ReinstallSameVersion(t *testing.T) {
	target := currentTarget(t)
	archive := makeTarGz(t, []tarEntry{
		{name: "pm-git" + target.ExeSuffix(), data: []byte("#!/bin/sh\nexit 0\n"), mode: 0o755},
		{name: ManifestFileName, data: manifestYAML("pm-git", "1.0.0"), mode: 0o644},
	})
	archiveName := platform.ArchiveNames("pm-git", target)[0]
	srv := releaseServer(t, "alice/pm-git", "1.0.0", map[string][]byte{archiveName: archive})

	extDir := t.TempDir()
	inst := NewInstaller(extDir, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	spec := InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"}

	for i := 0; i < 2; i++ {
		if _, err := inst.Install(context.Background(), spec); err != nil {
			t.Fatalf("install %d failed: %v", i+1, err)
		}
	}

	reg, err := ScanDir(extDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reg.List()) != 1 {
		t.Errorf("have %d extensions, want exactly 1", len(reg.List()))
	}
	if len(reg.Warnings()) != 0 {
		t.Errorf("reinstall left debris: %v", reg.Warnings())
	}
}

func TestInstall_ConcurrentSameSpec(t *testing.T) {
	target := currentTarget(t)
	archive := makeTarGz(t, []tarEntry{
		{name: "pm-git" + target.ExeSuffix(), data: []byte("#!/bin/sh\nexit 0\n"), mode: 0o755},
		{name: ManifestFileName, data: manifestYAML("pm-git", "1.0.0"), mode: 0o644},
	})
	archiveName := platform.ArchiveNames("pm-git", target)[0]
	srv := releaseServer(t, "alice/pm-git", "1.0.0", map[string][]byte{archiveName: archive})

	extDir := t.TempDir()
	spec := InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.0.0"}

	// Two installers race the directory swap. Each stages in its own temp
	// dir, so whatever the interleaving, the live directory must end up as
	// one complete install — a loser may report an error, but never leave
	// a broken or mixed tree behind.
	for round := 0; round < 5; round++ {
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inst := NewInstaller(extDir, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
				_, err := inst.Install(context.Background(), spec)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			}
		}
		if succeeded == 0 {
			t.Fatalf("round %d: neither racing install succeeded", round)
		}

		reg, err := ScanDir(extDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(reg.List()) != 1 {
			t.Fatalf("round %d: have %d extensions, want exactly 1", round, len(reg.List()))
		}
		if len(reg.Warnings()) != 0 {
			t.Fatalf("round %d: racing installs left a broken tree: %v", round, reg.Warnings())
		}
		ext, err := reg.Get("pm-git")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(ext.BinaryPath); err != nil {
			t.Fatalf("round %d: entry point missing: %v", round, err)
		}
	}
}

func TestUninstall(t *testing.T) {
	extDir := t.TempDir()
	installFake(t, extDir, "pm-git", nil)

	inst := NewInstaller(extDir)
	if err := inst.Uninstall("pm-git"); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(extDir, "pm-git")); !os.IsNotExist(err) {
		t.Error("extension directory should be removed")
	}

	if err := inst.Uninstall("pm-git"); !errors.Is(err, ErrExtensionNotFound) {
		t.Fatalf("expected ErrExtensionNotFound, got %v", err)
	}
}

func TestResolveAsset_Order(t *testing.T) {
	target, err := platform.Resolve("linux", "amd64")
	if err != nil {
		t.Fatal(err)
	}
	inst := NewInstaller(t.TempDir(), WithBaseURL("https://releases.example"))
	refs := inst.ResolveAsset(InstallSpec{Name: "pm-git", Source: "alice/pm-git", Version: "1.2.3"}, target)

	if len(refs) != 3 {
		t.Fatalf("have %d candidates, want 3", len(refs))
	}
	if refs[0].Filename != "pm-git-x86_64-unknown-linux-gnu" {
		t.Errorf("raw binary should be tried first, got %s", refs[0].Filename)
	}
	want := "https://releases.example/alice/pm-git/releases/download/v1.2.3/pm-git-x86_64-unknown-linux-gnu.tar.gz"
	if refs[1].URL != want {
		t.Errorf("archive URL = %s, want %s", refs[1].URL, want)
	}
}
