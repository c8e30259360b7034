package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no configuration file exists at the
// given path. Callers decide whether that means first-run initialization.
var ErrNotFound = errors.New("configuration file not found")

// ErrFutureVersion is returned by Migrate when the document's version is
// newer than this build understands. Migration fails closed rather than
// guessing.
var ErrFutureVersion = errors.New("configuration version is newer than this build supports")

// ParseError reports a document that is not well-formed YAML or does not
// decode into the configuration types.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing configuration %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a well-formed document that violates the schema or a
// semantic invariant. Issues carry field-level paths.
type SchemaError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("configuration %s failed validation: %s", e.Path, strings.Join(msgs, "; "))
}
