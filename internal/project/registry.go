package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pm-labs/pm/internal/config"
)

// Registry errors.
var (
	ErrNotFound      = errors.New("project not found")
	ErrAlreadyExists = errors.New("project already exists")
	ErrInvalidPath   = errors.New("invalid project path")
	ErrAmbiguous     = errors.New("project reference is ambiguous")
)

// Registry performs project operations against the configuration document
// at a fixed path. It holds no document state of its own; each operation
// works on a fresh load.
type Registry struct {
	path string
}

// NewRegistry returns a registry bound to the configuration document at
// configPath.
func NewRegistry(configPath string) *Registry {
	return &Registry{path: configPath}
}

// Add registers the directory at path as a new project with the given tags
// and returns the created entry. The project name defaults to the
// directory's base name when name is empty. Fails with ErrInvalidPath if
// path is not an existing directory and ErrAlreadyExists if the path is
// already tracked.
func (r *Registry) Add(path, name string, tags []string) (*config.ProjectEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidPath, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, abs)
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	var entry *config.ProjectEntry
	err = r.mutate(func(cfg *config.Config) error {
		for _, p := range cfg.Projects {
			if p.Path == abs {
				return fmt.Errorf("%w: %s is tracked as %q", ErrAlreadyExists, abs, p.Name)
			}
		}

		id := freshID(cfg.Projects)
		now := time.Now().UTC()
		entry = &config.ProjectEntry{
			ID:        id,
			Name:      name,
			Path:      abs,
			Tags:      normalizeTags(tags),
			CreatedAt: now,
			UpdatedAt: now,
		}
		cfg.Projects[id] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes the project with the given id. Machine metadata entries
// referencing the id are left in place; readers treat them as orphaned.
func (r *Registry) Remove(id string) error {
	return r.mutate(func(cfg *config.Config) error {
		if _, ok := cfg.Projects[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		delete(cfg.Projects, id)
		return nil
	})
}

// UpdateTags replaces the project's tag set and bumps updated_at.
func (r *Registry) UpdateTags(id string, tags []string) error {
	return r.mutate(func(cfg *config.Config) error {
		p, ok := cfg.Projects[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		p.Tags = normalizeTags(tags)
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Rename changes the project's display name and bumps updated_at.
func (r *Registry) Rename(id, name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	return r.mutate(func(cfg *config.Config) error {
		p, ok := cfg.Projects[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		p.Name = name
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Touch records an access to the project from the given machine: sets
// last_accessed to now and increments access_counts (starting at 1). This
// runs on every project switch, so it keeps the document bounded — counts
// are plain integers and no history is appended.
func (r *Registry) Touch(id, machineID string) error {
	return r.mutate(func(cfg *config.Config) error {
		if _, ok := cfg.Projects[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		stats, ok := cfg.MachineMetadata[machineID]
		if !ok {
			stats = &config.MachineStats{}
			cfg.MachineMetadata[machineID] = stats
		}
		if stats.LastAccessed == nil {
			stats.LastAccessed = map[string]time.Time{}
		}
		if stats.AccessCounts == nil {
			stats.AccessCounts = map[string]int{}
		}
		stats.LastAccessed[id] = time.Now().UTC()
		stats.AccessCounts[id]++
		return nil
	})
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Tag      string
	Language string
	Limit    int
}

// List returns tracked projects matching the filter, ordered by updated_at
// descending (name ascending on ties).
func (r *Registry) List(f Filter) ([]*config.ProjectEntry, error) {
	cfg, err := config.Open(r.path)
	if err != nil {
		return nil, err
	}

	var out []*config.ProjectEntry
	for _, p := range cfg.Projects {
		if f.Tag != "" && !p.HasTag(f.Tag) {
			continue
		}
		if f.Language != "" && (p.Language == nil || *p.Language != f.Language) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Name < out[j].Name
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// FindByPathPrefix returns projects whose path starts with query, for fuzzy
// switching. Ties are broken by this machine's access count, then most
// recent access, then updated_at.
func (r *Registry) FindByPathPrefix(query string) ([]*config.ProjectEntry, error) {
	cfg, err := config.Open(r.path)
	if err != nil {
		return nil, err
	}

	machine := MachineID()
	counts := map[string]int{}
	accessed := map[string]time.Time{}
	if stats, ok := cfg.MachineMetadata[machine]; ok {
		// Only stats for projects that still exist are consulted;
		// orphaned entries stay on disk but never influence results.
		for id, n := range stats.AccessCounts {
			if _, ok := cfg.Projects[id]; ok {
				counts[id] = n
			}
		}
		for id, t := range stats.LastAccessed {
			if _, ok := cfg.Projects[id]; ok {
				accessed[id] = t
			}
		}
	}

	var out []*config.ProjectEntry
	for _, p := range cfg.Projects {
		if strings.HasPrefix(p.Path, query) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if counts[a.ID] != counts[b.ID] {
			return counts[a.ID] > counts[b.ID]
		}
		if !accessed[a.ID].Equal(accessed[b.ID]) {
			return accessed[a.ID].After(accessed[b.ID])
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return out, nil
}

// Resolve maps a user-supplied reference to a single project: exact name
// match first, then a unique name prefix. Multiple prefix matches return
// ErrAmbiguous with the candidates in the message.
func (r *Registry) Resolve(ref string) (*config.ProjectEntry, error) {
	cfg, err := config.Open(r.path)
	if err != nil {
		return nil, err
	}

	var prefix []*config.ProjectEntry
	for _, p := range cfg.Projects {
		if p.Name == ref {
			return p, nil
		}
		if strings.HasPrefix(p.Name, ref) {
			prefix = append(prefix, p)
		}
	}

	switch len(prefix) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return prefix[0], nil
	default:
		names := make([]string, len(prefix))
		for i, p := range prefix {
			names[i] = p.Name
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, ref, strings.Join(names, ", "))
	}
}

// Get returns the project with the given id.
func (r *Registry) Get(id string) (*config.ProjectEntry, error) {
	cfg, err := config.Open(r.path)
	if err != nil {
		return nil, err
	}
	p, ok := cfg.Projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// mutate runs the load-modify-validate-save sequence under the advisory
// lock. The document must already exist; first-run initialization is the
// caller's concern.
func (r *Registry) mutate(fn func(*config.Config) error) error {
	return config.WithLock(r.path, func() error {
		cfg, err := config.Open(r.path)
		if err != nil {
			return err
		}
		if err := fn(cfg); err != nil {
			return err
		}
		return config.Save(r.path, cfg)
	})
}

// freshID generates a project UUID guaranteed not to collide with an
// existing key. Collisions are astronomically rare but regenerated rather
// than assumed away.
func freshID(existing map[string]*config.ProjectEntry) string {
	for {
		id := uuid.New().String()
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}

// normalizeTags deduplicates tags preserving first-seen order, drops empty
// strings, and guarantees a non-nil slice (the schema requires an array).
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
