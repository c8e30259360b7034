// Package config owns the persisted configuration document: its schema,
// strict validation, atomic load/save, and version migration.
//
// The document lives at ~/.config/pm/config.yml (override with
// PM_CONFIG_DIR). Every save is written to a temp file in the same
// directory, fsynced, and renamed into place, so readers never observe a
// partially written document. Two concurrent writers still race
// (last-writer-wins); an advisory flock narrows the window but correctness
// never depends on it.
package config
