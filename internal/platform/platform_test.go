package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		os, arch string
		triple   string
	}{
		{"linux", "amd64", "x86_64-unknown-linux-gnu"},
		{"linux", "aarch64", "aarch64-unknown-linux-gnu"},
		{"darwin", "arm64", "aarch64-apple-darwin"},
		{"macos", "x86_64", "x86_64-apple-darwin"},
		{"windows", "amd64", "x86_64-pc-windows-msvc"},
		{"win32", "x64", "x86_64-pc-windows-msvc"},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.os, tt.arch)
		if err != nil {
			t.Errorf("Resolve(%s, %s): %v", tt.os, tt.arch, err)
			continue
		}
		if got.Triple != tt.triple {
			t.Errorf("Resolve(%s, %s) = %s, want %s", tt.os, tt.arch, got.Triple, tt.triple)
		}
	}
}

func TestResolve_Unsupported(t *testing.T) {
	for _, pair := range [][2]string{
		{"plan9", "amd64"},
		{"linux", "riscv64"},
		{"", ""},
	} {
		_, err := Resolve(pair[0], pair[1])
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("Resolve(%s, %s): expected ErrUnsupportedPlatform, got %v", pair[0], pair[1], err)
		}
	}
}

func TestBinaryName(t *testing.T) {
	linux, _ := Resolve("linux", "amd64")
	if got := BinaryName("pm-git", linux); got != "pm-git-x86_64-unknown-linux-gnu" {
		t.Errorf("BinaryName = %q", got)
	}

	win, _ := Resolve("windows", "amd64")
	if got := BinaryName("pm-git", win); got != "pm-git-x86_64-pc-windows-msvc.exe" {
		t.Errorf("BinaryName = %q", got)
	}
}

func TestChmod(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are POSIX-specific")
	}
	path := filepath.Join(t.TempDir(), "entry")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Chmod(path, 0o755); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o100 == 0 {
		t.Error("executable bit should be set")
	}
}

func TestArchiveNames(t *testing.T) {
	linux, _ := Resolve("linux", "arm64")
	names := ArchiveNames("pm-git", linux)
	if len(names) != 2 || names[0] != "pm-git-aarch64-unknown-linux-gnu.tar.gz" {
		t.Errorf("ArchiveNames = %v, want tar.gz preferred on linux", names)
	}

	win, _ := Resolve("windows", "arm64")
	names = ArchiveNames("pm-git", win)
	if len(names) != 2 || names[0] != "pm-git-aarch64-pc-windows-msvc.zip" {
		t.Errorf("ArchiveNames = %v, want zip preferred on windows", names)
	}
}
