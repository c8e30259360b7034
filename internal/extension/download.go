package extension

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pm-labs/pm/internal/branding"
)

// download fetches url into destDir and returns the file path. Artifacts
// are immutable versioned assets, so a retry after any failure is always
// safe. A 404 is reported as ErrAssetNotFound so callers can try the next
// artifact naming candidate.
func (i *Installer) download(ctx context.Context, url, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-extension-installer")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}

	destPath := filepath.Join(destDir, filepath.Base(url))
	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading download stream for %s: %w", url, err)
	}
	if n == 0 {
		return "", fmt.Errorf("downloaded artifact %s is empty", url)
	}
	return destPath, nil
}

// fetchChecksums downloads a checksums.txt published next to the release
// assets. Each line is "sha256  filename". A missing checksums file returns
// nil — publication is optional; when present, verification is mandatory.
func (i *Installer) fetchChecksums(ctx context.Context, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating checksum request: %w", err)
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-extension-installer")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading checksums: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checksums download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}

	sums := map[string]string{}
	for _, line := range strings.Split(string(body), "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 {
			sums[parts[1]] = parts[0]
		}
	}
	return sums, nil
}

// verifySHA256 compares the file's digest against the expected hex string.
func verifySHA256(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("computing checksum of %s: %w", path, err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrChecksumMismatch, filepath.Base(path), expected, actual)
	}
	return nil
}
