package config

import "time"

// Config is the persisted configuration document. One document exists per
// user; it is the single source of truth for tracked projects and
// per-machine usage metadata.
type Config struct {
	Version         string                   `yaml:"version" json:"version"`
	GitHubUsername  string                   `yaml:"github_username" json:"github_username"`
	ProjectsRootDir string                   `yaml:"projects_root_dir" json:"projects_root_dir"`
	Editor          string                   `yaml:"editor" json:"editor"`
	Settings        Settings                 `yaml:"settings" json:"settings"`
	Projects        map[string]*ProjectEntry `yaml:"projects" json:"projects"`
	MachineMetadata map[string]*MachineStats `yaml:"machine_metadata" json:"machine_metadata"`
}

// Settings holds user-tunable behavior flags. ShowGitStatus is a pointer
// so migration can tell a document that never stored the key apart from
// one that explicitly stored false.
type Settings struct {
	AutoOpenEditor      bool  `yaml:"auto_open_editor" json:"auto_open_editor"`
	ShowGitStatus       *bool `yaml:"show_git_status,omitempty" json:"show_git_status,omitempty"`
	RecentProjectsLimit int   `yaml:"recent_projects_limit" json:"recent_projects_limit"`
}

// ProjectEntry is one tracked project. Its ID must equal the key under
// which it is stored in Config.Projects.
type ProjectEntry struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	Path              string     `yaml:"path" json:"path"`
	Tags              []string   `yaml:"tags" json:"tags"`
	Language          *string    `yaml:"language,omitempty" json:"language,omitempty"`
	GitRemoteURL      string     `yaml:"git_remote_url,omitempty" json:"git_remote_url,omitempty"`
	GitCurrentBranch  string     `yaml:"git_current_branch,omitempty" json:"git_current_branch,omitempty"`
	GitStatus         *string    `yaml:"git_status,omitempty" json:"git_status,omitempty"`
	LastGitCommitTime *time.Time `yaml:"last_git_commit_time,omitempty" json:"last_git_commit_time,omitempty"`
	CreatedAt         time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `yaml:"updated_at" json:"updated_at"`
}

func boolPtr(b bool) *bool { return &b }

// HasTag reports whether the project carries the given tag.
func (p *ProjectEntry) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MachineStats records per-machine access bookkeeping, both maps keyed by
// project UUID. Entries may reference projects that were removed on another
// machine; readers treat those as orphaned and skip them.
type MachineStats struct {
	LastAccessed map[string]time.Time `yaml:"last_accessed" json:"last_accessed"`
	AccessCounts map[string]int       `yaml:"access_counts" json:"access_counts"`
}

// Default returns a freshly initialized document at the current schema
// version. Callers (first-run init) are responsible for persisting it.
func Default() *Config {
	return &Config{
		Version:         CurrentVersion,
		GitHubUsername:  "user",
		ProjectsRootDir: "~/workspace",
		Editor:          "hx",
		Settings: Settings{
			AutoOpenEditor:      false,
			ShowGitStatus:       boolPtr(true),
			RecentProjectsLimit: 10,
		},
		Projects:        map[string]*ProjectEntry{},
		MachineMetadata: map[string]*MachineStats{},
	}
}
