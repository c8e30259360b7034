package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"
)

// Load reads, validates, and decodes the configuration document at path.
// Returns ErrNotFound when the file does not exist, *ParseError for
// malformed YAML, and *SchemaError for documents violating the schema or a
// semantic invariant. Load never synthesizes defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if !result.Valid {
		return nil, &SchemaError{Path: path, Issues: result.Issues}
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// The raw bytes already passed the schema; only the semantic checks
	// run on the decoded form. Re-marshaling here would reject documents
	// from older schema versions whose defaults migration has yet to fill.
	if issues := semanticIssues(&cfg); len(issues) > 0 {
		return nil, &SchemaError{Path: path, Issues: issues}
	}

	if cfg.Projects == nil {
		cfg.Projects = map[string]*ProjectEntry{}
	}
	if cfg.MachineMetadata == nil {
		cfg.MachineMetadata = map[string]*MachineStats{}
	}
	return &cfg, nil
}

// Open loads the document and upgrades it in memory to CurrentVersion.
// The upgraded form is not written back here; the next mutating Save
// persists it. Most callers want Open; Load is for code that must see the
// document exactly as stored.
func Open(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save validates cfg and writes it to path atomically: temp file in the
// same directory, fsync, rename. A crash mid-write leaves the previous
// document intact, and a concurrent reader never sees a partial write.
func Save(path string, cfg *Config) error {
	if result := ValidateDocument(cfg); !result.Valid {
		return &SchemaError{Path: path, Issues: result.Issues}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yml")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing configuration: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing configuration %s: %w", path, err)
	}
	return nil
}

// lockTimeout bounds how long a mutating operation waits for the advisory
// lock before proceeding unlocked.
const lockTimeout = 2 * time.Second

// WithLock runs fn while holding an advisory file lock next to the
// document. The lock only narrows the read-modify-write race between
// concurrent invocations; if it cannot be acquired in time, fn runs
// anyway — on-disk consistency comes from the atomic rename in Save, not
// from the lock.
func WithLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, _ := fl.TryLockContext(ctx, 20*time.Millisecond)
	if locked {
		defer fl.Unlock()
	}

	return fn()
}
