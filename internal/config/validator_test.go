package config

import (
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"
)

func validDocBytes(t *testing.T) []byte {
	t.Helper()
	data, err := yaml.Marshal(Default())
	if err != nil {
		t.Fatalf("marshaling default config: %v", err)
	}
	return data
}

func TestValidate_DefaultDocument(t *testing.T) {
	result, err := Validate(validDocBytes(t))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("default document should be valid, got issues: %v", result.Issues)
	}
}

func TestValidate_UnknownTopLevelField(t *testing.T) {
	data := append(validDocBytes(t), []byte("unexpected_field: true\n")...)

	result, err := Validate(data)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("document with unknown top-level field should be rejected")
	}
}

func TestValidate_UnknownNestedField(t *testing.T) {
	doc := `
version: "1.2"
github_username: alice
projects_root_dir: /home/alice/src
editor: hx
settings:
  show_git_status: true
  recent_projects_limit: 10
  surprise: 1
projects: {}
machine_metadata: {}
`
	result, err := Validate([]byte(doc))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("unknown field under settings should be rejected")
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Path, "/settings") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an issue under /settings, got %v", result.Issues)
	}
}

func TestValidate_BadVersionPattern(t *testing.T) {
	doc := `
version: "1.2.3"
github_username: alice
projects_root_dir: /src
editor: hx
projects: {}
`
	result, err := Validate([]byte(doc))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("three-part version should fail the MAJOR.MINOR pattern")
	}
}

func TestValidate_ProjectKeyMustBeUUID(t *testing.T) {
	doc := `
version: "1.2"
github_username: alice
projects_root_dir: /src
editor: hx
projects:
  not-a-uuid:
    id: not-a-uuid
    name: demo
    path: /src/demo
    tags: []
    created_at: 2026-01-02T10:00:00Z
    updated_at: 2026-01-02T10:00:00Z
`
	result, err := Validate([]byte(doc))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("non-UUID project key should be rejected")
	}
}

func TestValidate_RecentProjectsLimitRange(t *testing.T) {
	for _, limit := range []string{"0", "101"} {
		doc := `
version: "1.2"
github_username: alice
projects_root_dir: /src
editor: hx
settings:
  recent_projects_limit: ` + limit + `
projects: {}
`
		result, err := Validate([]byte(doc))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if result.Valid {
			t.Errorf("recent_projects_limit=%s should be out of range", limit)
		}
	}
}

func TestValidateDocument_IDMustMatchKey(t *testing.T) {
	cfg := Default()
	now := time.Now().UTC()
	cfg.Projects["5d6f7b1a-2e3c-4d4e-8f9a-0b1c2d3e4f5a"] = &ProjectEntry{
		ID:        "00000000-0000-4000-8000-000000000000",
		Name:      "demo",
		Path:      "/src/demo",
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := ValidateDocument(cfg)
	if result.Valid {
		t.Fatal("entry id differing from its map key should be rejected")
	}
}

func TestValidateDocument_UpdatedAtNotBeforeCreatedAt(t *testing.T) {
	cfg := Default()
	now := time.Now().UTC()
	id := "5d6f7b1a-2e3c-4d4e-8f9a-0b1c2d3e4f5a"
	cfg.Projects[id] = &ProjectEntry{
		ID:        id,
		Name:      "demo",
		Path:      "/src/demo",
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now.Add(-time.Hour),
	}

	result := ValidateDocument(cfg)
	if result.Valid {
		t.Fatal("updated_at earlier than created_at should be rejected")
	}
}
