package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentVersion is the schema version this build reads and writes.
const CurrentVersion = "1.2"

// A migration upgrades a document from one version to the next. Steps are
// additive only: they fill in fields the older schema did not have and
// never drop data.
type migration struct {
	from  string
	to    string
	apply func(*Config)
}

var migrations = []migration{
	{
		from: "1.0",
		to:   "1.1",
		apply: func(c *Config) {
			// 1.0 predates the settings block. Only absent fields get
			// defaults; an explicitly stored value always survives.
			if c.Settings.RecentProjectsLimit == 0 {
				c.Settings.RecentProjectsLimit = 10
			}
			if c.Settings.ShowGitStatus == nil {
				c.Settings.ShowGitStatus = boolPtr(true)
			}
		},
	},
	{
		from: "1.1",
		to:   "1.2",
		apply: func(c *Config) {
			// 1.1 predates per-machine metadata.
			if c.MachineMetadata == nil {
				c.MachineMetadata = map[string]*MachineStats{}
			}
		},
	},
}

// Migrate upgrades cfg in place from its recorded version to
// CurrentVersion by applying each migration step in order. Documents
// already at CurrentVersion pass through unchanged; documents from a newer
// schema return ErrFutureVersion.
func Migrate(cfg *Config) error {
	have, err := semver.NewVersion(cfg.Version)
	if err != nil {
		return fmt.Errorf("parsing configuration version %q: %w", cfg.Version, err)
	}
	current := semver.MustParse(CurrentVersion)

	if have.GreaterThan(current) {
		return fmt.Errorf("%w: document is %s, build supports up to %s",
			ErrFutureVersion, cfg.Version, CurrentVersion)
	}
	if have.Equal(current) {
		return nil
	}

	for _, m := range migrations {
		step := semver.MustParse(m.from)
		if have.GreaterThan(step) {
			continue
		}
		if !have.Equal(step) {
			return fmt.Errorf("no migration path from configuration version %s", cfg.Version)
		}
		m.apply(cfg)
		cfg.Version = m.to
		have = semver.MustParse(m.to)
	}

	if !have.Equal(current) {
		return fmt.Errorf("migration stopped at version %s, expected %s", cfg.Version, CurrentVersion)
	}
	return nil
}
